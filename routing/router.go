// Package routing maps keys onto the partition ring and fans operations out
// to the replicas responsible for them.
package routing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c0deZ3R0/go-store-kit/cluster"
	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
	"github.com/c0deZ3R0/go-store-kit/logging"
	"github.com/c0deZ3R0/go-store-kit/transport"
	"github.com/c0deZ3R0/go-store-kit/version"
)

// Router routes keys to their replica set for one store and performs the
// replicated read, write, and delete fan-outs.
//
// Fan-out is sequential and aborts on the first replica failure; there is
// no partial-failure tolerance and no automatic retry. Writes are not
// quorum-gated: every routed replica must accept a write regardless of the
// store's configured RequiredWrites. Both behaviors follow the upstream
// client.
type Router struct {
	def    *cluster.StoreDef
	nodes  []*cluster.Node
	ring   []*cluster.Node // partition id -> owning node
	logger *logging.Logger
}

// New builds a Router from a store definition and the full node set.
//
// The partition ring is derived once: every node's partition ids are placed
// into a contiguous array indexed 0..P-1. A duplicate or missing id is a
// configuration error.
func New(def *cluster.StoreDef, nodes []*cluster.Node) (*Router, error) {
	pmap := make(map[int]*cluster.Node)
	for _, node := range nodes {
		for _, partition := range node.Partitions() {
			if _, ok := pmap[partition]; ok {
				return nil, storeErrors.NewConfigurationError(storeErrors.OpRoute,
					fmt.Errorf("duplicate partition id %d in cluster configuration", partition))
			}
			pmap[partition] = node
		}
	}

	ring := make([]*cluster.Node, len(pmap))
	for i := range ring {
		node, ok := pmap[i]
		if !ok {
			return nil, storeErrors.NewConfigurationError(storeErrors.OpRoute,
				fmt.Errorf("missing partition id %d in cluster configuration", i))
		}
		ring[i] = node
	}
	if len(ring) == 0 {
		return nil, storeErrors.NewConfigurationError(storeErrors.OpRoute,
			fmt.Errorf("cluster configuration owns no partitions"))
	}

	return &Router{
		def:    def,
		nodes:  nodes,
		ring:   ring,
		logger: logging.Default().WithComponent("router").WithStore(def.Name),
	}, nil
}

// fnv1a32 is the signed 32-bit FNV-1a hash the cluster uses to place keys.
// The sign behavior is part of the routing contract shared with every other
// client, so it is kept here rather than delegated to hash/fnv.
func fnv1a32(key []byte) int32 {
	hash := uint32(0x811c9dc5)
	for _, c := range key {
		hash = (hash ^ uint32(c)) * 0x01000193
	}
	return int32(hash)
}

// Route returns the ordered candidate replicas for key: starting at the
// key's hash slot, the ring is walked forward collecting distinct nodes
// until the replication factor is reached or the whole ring has been
// scanned. The first node returned is the coordinator for writes.
//
// The result is deterministic for a fixed key and topology and holds
// between 1 and min(N, distinct owner count) nodes.
func (r *Router) Route(key []byte) []*cluster.Node {
	index := int(fnv1a32(key))
	if index < 0 {
		index = -index
	}
	index %= len(r.ring)

	res := make([]*cluster.Node, 0, r.def.ReplicationFactor)
	for i := 0; i < len(r.ring); i++ {
		node := r.ring[index]
		if !containsNode(res, node) {
			res = append(res, node)
		}
		if len(res) >= r.def.ReplicationFactor {
			return res
		}
		index = (index + 1) % len(r.ring)
	}
	// fewer distinct owners than the replication factor, which may be fine
	return res
}

func containsNode(nodes []*cluster.Node, node *cluster.Node) bool {
	for _, n := range nodes {
		if n.ID() == node.ID() {
			return true
		}
	}
	return false
}

// GetRaw queries every routed replica for key, concatenates their results,
// passes them through read repair, and resolves conflicts down to at most
// one version.
func (r *Router) GetRaw(ctx context.Context, store string, key []byte) ([]transport.Versioned, error) {
	var results []transport.Versioned
	for _, node := range r.Route(key) {
		res, err := node.Transport().GetRaw(ctx, store, key)
		if err != nil {
			r.logger.LogError(ctx, err, "replica read failed", slog.Int("node", node.ID()))
			return nil, err
		}
		results = append(results, res...)
	}
	results = r.readRepair(ctx, store, key, results)
	return ResolveConflicts(results), nil
}

// readRepair is where divergent replicas would be rewritten with the
// winning version after a read observes stale copies. The upstream client
// never implemented it; results pass through untouched.
func (r *Router) readRepair(ctx context.Context, store string, key []byte, retrieved []transport.Versioned) []transport.Versioned {
	if len(retrieved) <= 1 {
		return retrieved
	}
	r.logger.DebugContext(ctx, "divergent replicas observed, read repair not performed",
		slog.Int("versions", len(retrieved)))
	return retrieved
}

// PutRaw writes value to every routed replica. The first routed node is
// the coordinator: the supplied clock is incremented once for its node id,
// written there first, and the identical resulting clock is then written to
// each remaining replica. The incremented clock is returned.
func (r *Router) PutRaw(ctx context.Context, store string, key, value []byte, ver *version.Clock) (*version.Clock, error) {
	if ver == nil {
		ver = version.New()
	}
	nodes := r.Route(key)
	coordinator := nodes[0]
	if coordinator.ID() < 0 || coordinator.ID() > version.MaxNodeID {
		return nil, storeErrors.NewRangeError(storeErrors.OpPut,
			fmt.Errorf("coordinator node id %d cannot version writes", coordinator.ID()))
	}

	next, err := ver.Incremented(uint16(coordinator.ID()), 0)
	if err != nil {
		return nil, err
	}
	if err := coordinator.Transport().PutRaw(ctx, store, key, value, next); err != nil {
		r.logger.LogError(ctx, err, "coordinator write failed", slog.Int("node", coordinator.ID()))
		return nil, err
	}
	for _, node := range nodes[1:] {
		if err := node.Transport().PutRaw(ctx, store, key, value, next); err != nil {
			r.logger.LogError(ctx, err, "replica write failed", slog.Int("node", node.ID()))
			return nil, err
		}
	}
	return next, nil
}

// DeleteRaw issues the delete to every routed replica, aborting on the
// first failure. It reports whether any replica deleted something.
func (r *Router) DeleteRaw(ctx context.Context, store string, key []byte, ver *version.Clock) (bool, error) {
	deleted := false
	for _, node := range r.Route(key) {
		ok, err := node.Transport().DeleteRaw(ctx, store, key, ver)
		if err != nil {
			r.logger.LogError(ctx, err, "replica delete failed", slog.Int("node", node.ID()))
			return deleted, err
		}
		deleted = deleted || ok
	}
	return deleted, nil
}
