// Package cache provides the keyed resource store shared by the presentation controller.
//
// A Store owns its values: it disposes them on Delete, Clear and Dispose. Values are
// constructed at most once per key, no matter how many callers ask concurrently.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrDisposed is returned by operations on a disposed Store.
var ErrDisposed = errors.New("cache: disposed")

// Disposer is a value that holds releasable resources.
type Disposer interface {
	Dispose() error
}

// CreateFunc constructs the value for a missing key.
// The context passed in is detached from the caller's cancellation.
type CreateFunc[V Disposer] func(ctx context.Context) (V, error)

// Store is a keyed collection of disposable values with no implicit eviction.
// Thread-safe for concurrent access.
type Store[K comparable, V Disposer] struct {
	mu     *sync.Mutex
	name   string
	logger *slog.Logger

	items    map[K]V
	order    []K
	group    singleflight.Group
	disposed bool
}

// New creates an empty Store.
//
// Parameters:
//   - name: identifier used in log records
//   - options: functional options to configure the store
//
// Returns:
//   - *Store[K, V]: the new store
func New[K comparable, V Disposer](name string, options ...StoreBuilderOption) *Store[K, V] {
	o := storeOptions{logger: slog.Default()}
	for _, opt := range options {
		opt(&o)
	}
	return &Store[K, V]{
		mu:     &sync.Mutex{},
		name:   name,
		logger: o.logger.With("component", "cache", "cache", name),
		items:  make(map[K]V),
	}
}

// Get returns the value stored under key.
//
// Parameters:
//   - key: the key to look up
//
// Returns:
//   - V: the cached value, or the zero value
//   - bool: true if the key was present
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok
}

// GetOrCreate returns the value for key, constructing it with create on a miss.
//
// Concurrent callers for the same key share one construction. The construction keeps
// running if ctx is cancelled and its result is still stored, so a later call for the
// same key is a hit. If the store is disposed before the construction finishes, the
// constructed value is disposed instead of stored.
//
// Parameters:
//   - ctx: bounds how long the caller waits
//   - key: the key to look up
//   - create: constructs the value on a miss
//
// Returns:
//   - V: the cached or newly constructed value
//   - bool: true if the value was already cached
//   - error: the construction error, ErrDisposed, or ctx.Err()
func (s *Store[K, V]) GetOrCreate(ctx context.Context, key K, create CreateFunc[V]) (V, bool, error) {
	var zero V

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return zero, false, ErrDisposed
	}
	if v, ok := s.items[key]; ok {
		s.mu.Unlock()
		return v, true, nil
	}
	s.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(fmt.Sprintf("%T:%v", key, key), func() (any, error) {
		s.mu.Lock()
		if v, ok := s.items[key]; ok {
			s.mu.Unlock()
			return v, nil
		}
		s.mu.Unlock()

		v, err := create(detached)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.disposed {
			s.mu.Unlock()
			if derr := v.Dispose(); derr != nil {
				s.logger.Warn("dispose late value", "key", key, "error", derr)
			}
			return nil, ErrDisposed
		}
		s.items[key] = v
		s.order = append(s.order, key)
		s.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		return res.Val.(V), false, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// Put stores v under key, disposing any different value it replaces.
//
// Parameters:
//   - key: the key to store under
//   - v: the value to store
//
// Returns:
//   - error: ErrDisposed, or the error from disposing the replaced value
func (s *Store[K, V]) Put(key K, v V) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	old, ok := s.items[key]
	s.items[key] = v
	if !ok {
		s.order = append(s.order, key)
	}
	s.mu.Unlock()

	if ok && any(old) != any(v) {
		return old.Dispose()
	}
	return nil
}

// Delete removes and disposes the value stored under key.
//
// Returns:
//   - bool: true if the key was present
//   - error: the disposal error, if any
func (s *Store[K, V]) Delete(key K) (bool, error) {
	s.mu.Lock()
	v, ok := s.items[key]
	if ok {
		delete(s.items, key)
		s.order = slices.DeleteFunc(s.order, func(k K) bool { return k == key })
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, v.Dispose()
}

// Len returns the number of stored values.
func (s *Store[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Keys returns the stored keys in insertion order.
func (s *Store[K, V]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Disposed reports whether Dispose has been called.
func (s *Store[K, V]) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Clear disposes every value except those stored under keep. The store stays usable.
// Every value is disposed even if some fail; the failures are logged and joined.
//
// Parameters:
//   - keep: keys whose values survive the clear
//
// Returns:
//   - error: the joined disposal errors, or nil
func (s *Store[K, V]) Clear(keep ...K) error {
	s.mu.Lock()
	var victims []V
	var victimKeys []K
	remaining := s.order[:0:0]
	for _, k := range s.order {
		if slices.Contains(keep, k) {
			remaining = append(remaining, k)
			continue
		}
		victims = append(victims, s.items[k])
		victimKeys = append(victimKeys, k)
		delete(s.items, k)
	}
	s.order = remaining
	s.mu.Unlock()

	return s.disposeAll(victimKeys, victims)
}

// Dispose disposes every value and rejects further use. Safe to call more than once;
// only the first call disposes anything.
//
// Returns:
//   - error: the joined disposal errors, or nil
func (s *Store[K, V]) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	keys := s.order
	victims := make([]V, 0, len(keys))
	for _, k := range keys {
		victims = append(victims, s.items[k])
	}
	s.items = make(map[K]V)
	s.order = nil
	s.mu.Unlock()

	return s.disposeAll(keys, victims)
}

func (s *Store[K, V]) disposeAll(keys []K, values []V) error {
	var errs []error
	for i, v := range values {
		if err := v.Dispose(); err != nil {
			s.logger.Warn("dispose entry", "key", keys[i], "error", err)
			errs = append(errs, fmt.Errorf("dispose %v: %w", keys[i], err))
		}
	}
	if len(values) > 0 {
		s.logger.Debug("disposed entries", "count", len(values), "failed", len(errs))
	}
	return errors.Join(errs...)
}
