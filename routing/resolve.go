package routing

import (
	"sort"

	"github.com/c0deZ3R0/go-store-kit/metrics"
	"github.com/c0deZ3R0/go-store-kit/transport"
	"github.com/c0deZ3R0/go-store-kit/version"
)

// ResolveConflicts collapses the versions gathered from all replicas into at
// most one winner.
//
// The candidates are ordered by causal precedence with the dominant versions
// last, then the trailing run of mutually concurrent versions is taken as the
// maximal set. Causally dominated versions are discarded outright; among the
// truly concurrent survivors the one with the largest wall-clock timestamp
// wins. Timestamps only break ties between versions the clocks cannot order,
// so clock skew never overrides causality.
func ResolveConflicts(retrieved []transport.Versioned) []transport.Versioned {
	if len(retrieved) <= 1 {
		return retrieved
	}

	sorted := make([]transport.Versioned, len(retrieved))
	copy(sorted, retrieved)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Version.Compare(sorted[j].Version) == version.Before
	})

	// walk back from the dominant end while versions stay concurrent
	maximal := []transport.Versioned{sorted[len(sorted)-1]}
	for i := len(sorted) - 2; i >= 0; i-- {
		if sorted[i].Version.Compare(maximal[0].Version) != version.Concurrent {
			break
		}
		maximal = append(maximal, sorted[i])
	}

	winner := maximal[0]
	for _, candidate := range maximal[1:] {
		if candidate.Version.Timestamp() > winner.Version.Timestamp() {
			winner = candidate
		}
	}

	metrics.ConflictsResolved.Inc()
	return []transport.Versioned{winner}
}
