// Package memstore keeps lists in process memory.
// It backs memory:// URLs and the repository tests.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"remotetodos/internal/pool"
	"remotetodos/internal/queue"
)

// Store holds every list behind a single mutex, so each primitive is atomic
type Store struct {
	mu    sync.Mutex
	lists map[string][]string
}

// New creates an empty store
func New() *Store {
	return &Store{lists: make(map[string][]string)}
}

// Dial returns a connection to the store
func (s *Store) Dial(ctx context.Context) (pool.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &conn{store: s}, nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// Seed replaces the list at key with raw values
func (s *Store) Seed(key string, values ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append([]string(nil), values...)
}

// Raw returns a copy of the raw values stored at key
func (s *Store) Raw(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lists[key]...)
}

type conn struct {
	store  *Store
	closed bool
}

func (c *conn) check(ctx context.Context) error {
	if c.closed {
		return fmt.Errorf("memstore: connection closed")
	}
	return ctx.Err()
}

func (c *conn) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	list := c.store.lists[key]
	lo, hi, ok := queue.NormalizeRange(start, stop, int64(len(list)))
	if !ok {
		return []string{}, nil
	}
	return append([]string(nil), list[lo:hi+1]...), nil
}

func (c *conn) RPush(ctx context.Context, key, value string) (int64, error) {
	if err := c.check(ctx); err != nil {
		return 0, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	c.store.lists[key] = append(c.store.lists[key], value)
	return int64(len(c.store.lists[key])), nil
}

func (c *conn) LSet(ctx context.Context, key string, index int64, value string) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	list, exists := c.store.lists[key]
	if !exists {
		return fmt.Errorf("%w: no such key %q", queue.ErrIndexOutOfRange, key)
	}
	i, ok := queue.NormalizeIndex(index, int64(len(list)))
	if !ok {
		return fmt.Errorf("%w: %d of %d", queue.ErrIndexOutOfRange, index, len(list))
	}
	list[i] = value
	return nil
}

func (c *conn) LIndex(ctx context.Context, key string, index int64) (string, error) {
	if err := c.check(ctx); err != nil {
		return "", err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	list := c.store.lists[key]
	i, ok := queue.NormalizeIndex(index, int64(len(list)))
	if !ok {
		return "", fmt.Errorf("%w: %d of %d", queue.ErrIndexOutOfRange, index, len(list))
	}
	return list[i], nil
}

func (c *conn) LRem(ctx context.Context, key string, count int64, value string) (int64, error) {
	if err := c.check(ctx); err != nil {
		return 0, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	list := c.store.lists[key]
	limit := count
	if limit < 0 {
		limit = -limit
	}

	drop := make(map[int]bool)
	if count >= 0 {
		for i := 0; i < len(list); i++ {
			if list[i] == value && (limit == 0 || int64(len(drop)) < limit) {
				drop[i] = true
			}
		}
	} else {
		for i := len(list) - 1; i >= 0; i-- {
			if list[i] == value && int64(len(drop)) < limit {
				drop[i] = true
			}
		}
	}
	if len(drop) == 0 {
		return 0, nil
	}

	kept := make([]string, 0, len(list)-len(drop))
	for i, v := range list {
		if !drop[i] {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		// Empty lists do not exist, as in Redis.
		delete(c.store.lists, key)
	} else {
		c.store.lists[key] = kept
	}
	return int64(len(drop)), nil
}

func (c *conn) LLen(ctx context.Context, key string) (int64, error) {
	if err := c.check(ctx); err != nil {
		return 0, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return int64(len(c.store.lists[key])), nil
}

func (c *conn) Close() error {
	c.closed = true
	return nil
}
