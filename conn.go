package storekit

import (
	"context"

	"github.com/c0deZ3R0/go-store-kit/cluster"
	"github.com/c0deZ3R0/go-store-kit/transport"
	"github.com/c0deZ3R0/go-store-kit/version"
)

// Conn is the access path a Store issues raw operations through. The
// routed implementation fans out across replicas; the direct implementation
// talks to a single node, which is how cluster metadata is fetched before
// any topology is known.
type Conn interface {
	GetRaw(ctx context.Context, store string, key []byte) ([]transport.Versioned, error)
	PutRaw(ctx context.Context, store string, key, value []byte, ver *version.Clock) (*version.Clock, error)
	DeleteRaw(ctx context.Context, store string, key []byte, ver *version.Clock) (bool, error)
	Route(key []byte) []*cluster.Node
}

// directConn addresses exactly one node. Clocks pass through without
// coordinator increments since there is no replica set to version against.
type directConn struct {
	node *cluster.Node
}

func (d directConn) GetRaw(ctx context.Context, store string, key []byte) ([]transport.Versioned, error) {
	return d.node.Transport().GetRaw(ctx, store, key)
}

func (d directConn) PutRaw(ctx context.Context, store string, key, value []byte, ver *version.Clock) (*version.Clock, error) {
	if ver == nil {
		ver = version.New()
	}
	if err := d.node.Transport().PutRaw(ctx, store, key, value, ver); err != nil {
		return nil, err
	}
	return ver, nil
}

func (d directConn) DeleteRaw(ctx context.Context, store string, key []byte, ver *version.Clock) (bool, error) {
	return d.node.Transport().DeleteRaw(ctx, store, key, ver)
}

func (d directConn) Route(key []byte) []*cluster.Node {
	return []*cluster.Node{d.node}
}
