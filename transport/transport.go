// Package transport defines the wire-level contract a cluster node is
// reached through. A transport performs exactly one request/response
// exchange per connection; there is no pooling and no persistent session.
//
// Two implementations exist: the native socket protocol in
// transport/tcptransport and the HTTP protocol in transport/httptransport.
// Which one a node uses is decided once, at node construction, by which
// port the cluster metadata configures.
package transport

import (
	"context"
	"time"

	"github.com/c0deZ3R0/go-store-kit/version"
)

// Versioned is a stored payload together with the vector clock it was
// written under. A read may return several Versioned results for one key;
// more than one means concurrent writes that have not been reconciled yet.
type Versioned struct {
	Value   []byte
	Version *version.Clock
}

// Transport is the narrow raw contract implemented by both wire protocols.
type Transport interface {
	// GetRaw fetches every stored version of key from one node.
	GetRaw(ctx context.Context, store string, key []byte) ([]Versioned, error)

	// PutRaw writes value under the supplied clock to one node.
	PutRaw(ctx context.Context, store string, key, value []byte, ver *version.Clock) error

	// DeleteRaw deletes the versions of key dominated by the supplied
	// clock on one node. It reports whether anything was deleted.
	DeleteRaw(ctx context.Context, store string, key []byte, ver *version.Clock) (bool, error)
}

// Options carries the connection-level settings the protocols themselves do
// not specify. Zero values mean no limit.
type Options struct {
	// DialTimeout bounds establishing the connection.
	DialTimeout time.Duration

	// RequestTimeout bounds one full request/response exchange.
	RequestTimeout time.Duration
}

// DefaultOptions returns the default transport options.
func DefaultOptions() *Options {
	return &Options{
		DialTimeout:    10 * time.Second,
		RequestTimeout: 30 * time.Second,
	}
}
