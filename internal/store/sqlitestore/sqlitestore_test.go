package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotetodos/internal/pool"
	"remotetodos/internal/queue"
	"remotetodos/internal/store/storetest"
)

// newTestStore creates a file-backed store in a temp dir
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "todos.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) pool.Dialer {
		return newTestStore(t)
	})
}

func TestConformanceInMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) pool.Dialer {
		s, err := Open(":memory:", 4)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestReopenKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.db")
	ctx := context.Background()

	s, err := Open(path, 1)
	require.NoError(t, err)
	conn, err := s.Dial(ctx)
	require.NoError(t, err)
	for _, v := range []string{"a", "b", "c"} {
		_, err := conn.RPush(ctx, "todos", v)
		require.NoError(t, err)
	}
	_, err = conn.LRem(ctx, "todos", 1, "b")
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	require.NoError(t, s.Close())

	s, err = Open(path, 1)
	require.NoError(t, err)
	defer s.Close()
	conn, err = s.Dial(ctx)
	require.NoError(t, err)
	defer conn.Close()

	values, err := conn.LRange(ctx, "todos", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, values)

	v, err := conn.LIndex(ctx, "todos", 1)
	require.NoError(t, err)
	assert.Equal(t, "c", v)
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestInMemoryPoolFailsFast(t *testing.T) {
	s, err := Open(":memory:", 10)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	assert.Equal(t, 1, s.MaxConns())

	p := pool.New(s, pool.Options{Size: 10, Wait: false})
	assert.Equal(t, 1, p.Stats().Size)

	first, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer first.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = p.Acquire(ctx)
	assert.ErrorIs(t, err, queue.ErrPoolExhausted)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestInMemoryPoolWaitTimesOut(t *testing.T) {
	s, err := Open(":memory:", 10)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	p := pool.New(s, pool.Options{Size: 10, Wait: true, AcquireTimeout: 50 * time.Millisecond})
	first, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer first.Release()

	_, err = p.Acquire(context.Background())
	assert.ErrorIs(t, err, queue.ErrPoolExhausted)
}
