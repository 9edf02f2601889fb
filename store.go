package storekit

import (
	"context"
	"fmt"
	"time"

	"github.com/c0deZ3R0/go-store-kit/cluster"
	storeErrors "github.com/c0deZ3R0/go-store-kit/errors"
	"github.com/c0deZ3R0/go-store-kit/logging"
	"github.com/c0deZ3R0/go-store-kit/metrics"
	"github.com/c0deZ3R0/go-store-kit/serializer"
	"github.com/c0deZ3R0/go-store-kit/version"
)

// Store is the typed facade over one named store: it serializes logical
// keys and values, delegates the raw operations to its connection, and
// keeps versioning out of the caller's way unless the caller wants it.
type Store struct {
	name     string
	def      *cluster.StoreDef
	conn     Conn
	keySer   serializer.Serializer
	valueSer serializer.Serializer
	logger   *logging.Logger
}

// Name returns the store's name.
func (s *Store) Name() string { return s.name }

// Get fetches the resolved value for key together with the clock it was
// written under. A key with no stored value yields a nil value and a zero
// clock, not an error.
func (s *Store) Get(ctx context.Context, key string) (*string, *version.Clock, error) {
	start := time.Now()
	value, clock, err := s.get(ctx, key)
	metrics.ObserveRequest("get", start, err)
	if err != nil {
		s.logger.LogError(ctx, err, "get failed")
	}
	return value, clock, err
}

func (s *Store) get(ctx context.Context, key string) (*string, *version.Clock, error) {
	rawKey, err := s.keySer.ToBytes(&key)
	if err != nil {
		return nil, nil, err
	}
	results, err := s.conn.GetRaw(ctx, s.name, rawKey)
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		return nil, version.New(), nil
	}
	// a routed read resolves down to one version; more than one surviving
	// here means the connection could not reconcile concurrent writes
	if len(results) > 1 {
		return nil, nil, storeErrors.NewInconsistentDataError(storeErrors.OpGet,
			fmt.Errorf("%d unreconciled versions for key", len(results)))
	}
	value, err := s.valueSer.FromBytes(results[0].Value)
	if err != nil {
		return nil, nil, err
	}
	return value, results[0].Version, nil
}

// GetValue fetches just the resolved value for key, discarding the clock.
func (s *Store) GetValue(ctx context.Context, key string) (*string, error) {
	value, _, err := s.Get(ctx, key)
	return value, err
}

// Put writes value under key. The current clock is read first so the write
// descends from whatever version is visible; the clock the write landed
// under is returned. Concurrent writers that both read the same clock will
// produce concurrent versions for a later read to resolve.
func (s *Store) Put(ctx context.Context, key string, value *string) (*version.Clock, error) {
	start := time.Now()
	clock, err := s.put(ctx, key, value)
	metrics.ObserveRequest("put", start, err)
	if err != nil {
		s.logger.LogError(ctx, err, "put failed")
	}
	return clock, err
}

func (s *Store) put(ctx context.Context, key string, value *string) (*version.Clock, error) {
	_, current, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.putVersioned(ctx, key, value, current)
}

// PutVersioned writes value under key descending from an explicitly
// supplied clock, for callers doing their own read-modify-write cycles.
// A nil clock writes from scratch.
func (s *Store) PutVersioned(ctx context.Context, key string, value *string, ver *version.Clock) (*version.Clock, error) {
	start := time.Now()
	clock, err := s.putVersioned(ctx, key, value, ver)
	metrics.ObserveRequest("put", start, err)
	if err != nil {
		s.logger.LogError(ctx, err, "versioned put failed")
	}
	return clock, err
}

func (s *Store) putVersioned(ctx context.Context, key string, value *string, ver *version.Clock) (*version.Clock, error) {
	rawKey, err := s.keySer.ToBytes(&key)
	if err != nil {
		return nil, err
	}
	rawValue, err := s.valueSer.ToBytes(value)
	if err != nil {
		return nil, err
	}
	return s.conn.PutRaw(ctx, s.name, rawKey, rawValue, ver)
}

// Delete removes the versions of key visible at the time of the call. It
// reads the current clock first, then deletes everything that clock
// dominates. It reports whether anything was deleted.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	deleted, err := s.delete(ctx, key)
	metrics.ObserveRequest("delete", start, err)
	if err != nil {
		s.logger.LogError(ctx, err, "delete failed")
	}
	return deleted, err
}

func (s *Store) delete(ctx context.Context, key string) (bool, error) {
	rawKey, err := s.keySer.ToBytes(&key)
	if err != nil {
		return false, err
	}
	_, current, err := s.get(ctx, key)
	if err != nil {
		return false, err
	}
	// nothing stored means nothing to delete; issuing the fan-out anyway
	// would let the HTTP protocol report a deletion that never happened
	if current.IsZero() {
		return false, nil
	}
	return s.conn.DeleteRaw(ctx, s.name, rawKey, current)
}

// DeleteVersioned removes the versions of key dominated by an explicitly
// supplied clock.
func (s *Store) DeleteVersioned(ctx context.Context, key string, ver *version.Clock) (bool, error) {
	start := time.Now()
	rawKey, err := s.keySer.ToBytes(&key)
	if err != nil {
		metrics.ObserveRequest("delete", start, err)
		return false, err
	}
	deleted, err := s.conn.DeleteRaw(ctx, s.name, rawKey, ver)
	metrics.ObserveRequest("delete", start, err)
	if err != nil {
		s.logger.LogError(ctx, err, "versioned delete failed")
	}
	return deleted, err
}

// Locate returns the replicas responsible for key, coordinator first.
func (s *Store) Locate(key string) ([]*cluster.Node, error) {
	rawKey, err := s.keySer.ToBytes(&key)
	if err != nil {
		return nil, err
	}
	return s.conn.Route(rawKey), nil
}
