package cluster

import (
	"github.com/c0deZ3R0/go-store-kit/serializer"
)

// StoreDef is the immutable server-side definition of one store, parsed
// once from bootstrap metadata.
type StoreDef struct {
	Name        string
	Persistence string
	Routing     string

	// ReplicationFactor is the number of distinct nodes a key's writes
	// are propagated to.
	ReplicationFactor int

	// RequiredReads and RequiredWrites are the configured quorum sizes.
	// The upstream write path does not actually enforce RequiredWrites:
	// every routed replica must accept a write. The fields are carried so
	// callers can see the configuration, not because the router gates on
	// them.
	RequiredReads  int
	RequiredWrites int

	// PreferredReads and PreferredWrites are optional; 0 means unset.
	PreferredReads  int
	PreferredWrites int

	// RetentionDays is optional; 0 means no retention period.
	RetentionDays int

	KeySerializer   serializer.Serializer
	ValueSerializer serializer.Serializer
}
