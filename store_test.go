package storekit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c0deZ3R0/go-store-kit/cluster"
	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
	"github.com/c0deZ3R0/go-store-kit/logging"
	"github.com/c0deZ3R0/go-store-kit/serializer"
	"github.com/c0deZ3R0/go-store-kit/transport"
	"github.com/c0deZ3R0/go-store-kit/version"
)

type rawCall struct {
	store string
	key   []byte
	value []byte
	ver   *version.Clock
}

type fakeConn struct {
	getResults []transport.Versioned
	getErr     error
	putClock   *version.Clock
	putErr     error
	deleteOK   bool
	deleteErr  error
	nodes      []*cluster.Node

	puts    []rawCall
	deletes []rawCall
}

func (f *fakeConn) GetRaw(ctx context.Context, store string, key []byte) ([]transport.Versioned, error) {
	return f.getResults, f.getErr
}

func (f *fakeConn) PutRaw(ctx context.Context, store string, key, value []byte, ver *version.Clock) (*version.Clock, error) {
	f.puts = append(f.puts, rawCall{store: store, key: key, value: value, ver: ver})
	return f.putClock, f.putErr
}

func (f *fakeConn) DeleteRaw(ctx context.Context, store string, key []byte, ver *version.Clock) (bool, error) {
	f.deletes = append(f.deletes, rawCall{store: store, key: key, ver: ver})
	return f.deleteOK, f.deleteErr
}

func (f *fakeConn) Route(key []byte) []*cluster.Node {
	return f.nodes
}

func testStore(conn Conn) *Store {
	return &Store{
		name:     "test",
		conn:     conn,
		keySer:   serializer.String{},
		valueSer: serializer.String{},
		logger:   logging.Default().WithStore("test"),
	}
}

func testClock(t *testing.T, entries ...version.Entry) *version.Clock {
	t.Helper()
	c, err := version.FromEntries(entries, 0)
	require.NoError(t, err)
	return c
}

func TestStoreGet(t *testing.T) {
	clock := testClock(t, version.Entry{NodeID: 0, Counter: 1})
	conn := &fakeConn{getResults: []transport.Versioned{{Value: []byte("bar"), Version: clock}}}

	value, got, err := testStore(conn).Get(context.Background(), "foo")
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, "bar", *value)
	assert.True(t, clock.Equal(got))
}

func TestStoreGetAbsentKey(t *testing.T) {
	conn := &fakeConn{}

	value, clock, err := testStore(conn).Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, value)
	require.NotNil(t, clock)
	assert.True(t, clock.IsZero())
}

func TestStoreGetRejectsUnreconciledVersions(t *testing.T) {
	a := testClock(t, version.Entry{NodeID: 0, Counter: 1})
	b := testClock(t, version.Entry{NodeID: 1, Counter: 1})
	conn := &fakeConn{getResults: []transport.Versioned{
		{Value: []byte("x"), Version: a},
		{Value: []byte("y"), Version: b},
	}}

	_, _, err := testStore(conn).Get(context.Background(), "foo")
	require.Error(t, err)
	assert.True(t, storeErrors.IsInconsistentData(err))
}

func TestStoreGetPropagatesErrors(t *testing.T) {
	boom := storeErrors.NewNetworkError(storeErrors.OpGet, errors.New("refused"))
	conn := &fakeConn{getErr: boom}

	_, _, err := testStore(conn).Get(context.Background(), "foo")
	assert.ErrorIs(t, err, boom)
}

func TestStorePutDescendsFromCurrentVersion(t *testing.T) {
	current := testClock(t, version.Entry{NodeID: 0, Counter: 1})
	next := testClock(t, version.Entry{NodeID: 0, Counter: 2})
	conn := &fakeConn{
		getResults: []transport.Versioned{{Value: []byte("old"), Version: current}},
		putClock:   next,
	}

	value := "bar"
	got, err := testStore(conn).Put(context.Background(), "foo", &value)
	require.NoError(t, err)
	assert.True(t, next.Equal(got))

	require.Len(t, conn.puts, 1)
	assert.Equal(t, "test", conn.puts[0].store)
	assert.Equal(t, []byte("foo"), conn.puts[0].key)
	assert.Equal(t, []byte("bar"), conn.puts[0].value)
	assert.True(t, current.Equal(conn.puts[0].ver))
}

func TestStorePutVersioned(t *testing.T) {
	supplied := testClock(t, version.Entry{NodeID: 1, Counter: 3})
	conn := &fakeConn{putClock: supplied}

	value := "bar"
	_, err := testStore(conn).PutVersioned(context.Background(), "foo", &value, supplied)
	require.NoError(t, err)
	require.Len(t, conn.puts, 1)
	assert.True(t, supplied.Equal(conn.puts[0].ver))
}

func TestStorePutRejectsUnencodableValue(t *testing.T) {
	conn := &fakeConn{}

	_, err := testStore(conn).Put(context.Background(), "foo", nil)
	require.Error(t, err)
	assert.True(t, storeErrors.IsConfiguration(err))
	assert.Empty(t, conn.puts)
}

func TestStoreDeleteUsesCurrentVersion(t *testing.T) {
	current := testClock(t, version.Entry{NodeID: 0, Counter: 1})
	conn := &fakeConn{
		getResults: []transport.Versioned{{Value: []byte("bar"), Version: current}},
		deleteOK:   true,
	}

	deleted, err := testStore(conn).Delete(context.Background(), "foo")
	require.NoError(t, err)
	assert.True(t, deleted)
	require.Len(t, conn.deletes, 1)
	assert.True(t, current.Equal(conn.deletes[0].ver))
}

func TestStoreDeleteAbsentKey(t *testing.T) {
	conn := &fakeConn{deleteOK: true}

	deleted, err := testStore(conn).Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, conn.deletes)
}

func TestStoreLocate(t *testing.T) {
	node := cluster.NewNode(cluster.NodeConfig{ID: 0, Host: "localhost", HTTPPort: 8081})
	conn := &fakeConn{nodes: []*cluster.Node{node}}

	nodes, err := testStore(conn).Locate("foo")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, 0, nodes[0].ID())
}
