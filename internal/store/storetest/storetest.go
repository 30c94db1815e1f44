// Package storetest is a conformance suite run by every list backend.
//
// It exercises the raw list primitives and the todo repository built on
// them, so each backend proves the same ordering, replacement, deletion and
// out-of-range behavior.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotetodos/internal/domain"
	"remotetodos/internal/pool"
	"remotetodos/internal/queue"
)

// Factory returns a fresh, empty backend. Run calls it once per subtest.
type Factory func(t *testing.T) pool.Dialer

// Run executes the whole suite against the backend built by newDialer
func Run(t *testing.T, newDialer Factory) {
	t.Run("primitives", func(t *testing.T) { runPrimitives(t, newDialer) })
	t.Run("repository", func(t *testing.T) { runRepository(t, newDialer) })
	t.Run("concurrent pushes", func(t *testing.T) { runConcurrentPushes(t, newDialer) })
}

func dial(t *testing.T, newDialer Factory) pool.Conn {
	t.Helper()
	d := newDialer(t)
	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newQueue(t *testing.T, newDialer Factory) (*queue.Queue[domain.Todo], pool.Conn) {
	t.Helper()
	conn := dial(t, newDialer)
	return queue.New[domain.Todo](conn, domain.ListKey, nil), conn
}

func runPrimitives(t *testing.T, newDialer Factory) {
	ctx := context.Background()

	t.Run("range on missing key is empty", func(t *testing.T) {
		conn := dial(t, newDialer)
		values, err := conn.LRange(ctx, "missing", 0, -1)
		require.NoError(t, err)
		assert.Empty(t, values)

		n, err := conn.LLen(ctx, "missing")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("push returns new length and range honors bounds", func(t *testing.T) {
		conn := dial(t, newDialer)
		for i, v := range []string{"a", "b", "c", "d"} {
			n, err := conn.RPush(ctx, "k", v)
			require.NoError(t, err)
			assert.Equal(t, int64(i+1), n)
		}

		tests := []struct {
			start, stop int64
			want        []string
		}{
			{0, -1, []string{"a", "b", "c", "d"}},
			{1, 2, []string{"b", "c"}},
			{-2, -1, []string{"c", "d"}},
			{-100, 100, []string{"a", "b", "c", "d"}},
			{3, 1, []string{}},
			{10, 20, []string{}},
		}
		for _, tt := range tests {
			values, err := conn.LRange(ctx, "k", tt.start, tt.stop)
			require.NoError(t, err)
			assert.Equal(t, tt.want, normalize(values), "LRange(%d, %d)", tt.start, tt.stop)
		}
	})

	t.Run("index and set", func(t *testing.T) {
		conn := dial(t, newDialer)
		for _, v := range []string{"a", "b", "c"} {
			_, err := conn.RPush(ctx, "k", v)
			require.NoError(t, err)
		}

		v, err := conn.LIndex(ctx, "k", 1)
		require.NoError(t, err)
		assert.Equal(t, "b", v)

		v, err = conn.LIndex(ctx, "k", -1)
		require.NoError(t, err)
		assert.Equal(t, "c", v)

		_, err = conn.LIndex(ctx, "k", 3)
		assert.ErrorIs(t, err, queue.ErrIndexOutOfRange)

		require.NoError(t, conn.LSet(ctx, "k", 0, "z"))
		values, err := conn.LRange(ctx, "k", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"z", "b", "c"}, values)

		assert.ErrorIs(t, conn.LSet(ctx, "k", 3, "x"), queue.ErrIndexOutOfRange)
		assert.ErrorIs(t, conn.LSet(ctx, "missing", 0, "x"), queue.ErrIndexOutOfRange)
	})

	t.Run("remove by value", func(t *testing.T) {
		conn := dial(t, newDialer)
		for _, v := range []string{"a", "b", "a", "c", "a"} {
			_, err := conn.RPush(ctx, "k", v)
			require.NoError(t, err)
		}

		n, err := conn.LRem(ctx, "k", 1, "a")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		values, err := conn.LRange(ctx, "k", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "c", "a"}, values)

		n, err = conn.LRem(ctx, "k", -1, "a")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		values, err = conn.LRange(ctx, "k", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "c"}, values)

		n, err = conn.LRem(ctx, "k", 1, "nope")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		_, err = conn.RPush(ctx, "k", "a")
		require.NoError(t, err)
		n, err = conn.LRem(ctx, "k", 0, "a")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		values, err = conn.LRange(ctx, "k", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, values)
	})

	t.Run("keys are independent", func(t *testing.T) {
		conn := dial(t, newDialer)
		_, err := conn.RPush(ctx, "one", "a")
		require.NoError(t, err)
		_, err = conn.RPush(ctx, "two", "b")
		require.NoError(t, err)

		values, err := conn.LRange(ctx, "one", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, values)
	})
}

func runRepository(t *testing.T, newDialer Factory) {
	ctx := context.Background()

	t.Run("append then list preserves order", func(t *testing.T) {
		q, _ := newQueue(t, newDialer)
		var want []domain.Todo
		for i := 0; i < 5; i++ {
			todo := domain.Todo{Description: fmt.Sprintf("item %d", i), Completed: i%2 == 0}
			n, err := q.Push(ctx, todo)
			require.NoError(t, err)
			assert.Equal(t, int64(i+1), n)
			want = append(want, todo)
		}

		got, err := q.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("empty collection lists nothing", func(t *testing.T) {
		q, _ := newQueue(t, newDialer)
		got, err := q.All(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("scenario append to empty", func(t *testing.T) {
		q, _ := newQueue(t, newDialer)
		_, err := q.Push(ctx, domain.Todo{Description: "buy milk"})
		require.NoError(t, err)

		got, err := q.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Todo{{Description: "buy milk", Completed: false}}, got)
	})

	t.Run("replace changes only the target", func(t *testing.T) {
		q, _ := newQueue(t, newDialer)
		seed(t, q, "a", "b", "c")

		idx, err := q.Replace(ctx, 1, domain.Todo{Description: "B", Completed: true})
		require.NoError(t, err)
		assert.Equal(t, int64(1), idx)

		got, err := q.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Todo{
			{Description: "a"},
			{Description: "B", Completed: true},
			{Description: "c"},
		}, got)
	})

	t.Run("scenario replace completes", func(t *testing.T) {
		q, _ := newQueue(t, newDialer)
		seed(t, q, "a")

		_, err := q.Replace(ctx, 0, domain.Todo{Description: "a", Completed: true})
		require.NoError(t, err)

		got, err := q.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Todo{{Description: "a", Completed: true}}, got)
	})

	t.Run("scenario delete head", func(t *testing.T) {
		q, _ := newQueue(t, newDialer)
		seed(t, q, "a", "b")

		removed, err := q.Delete(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, domain.Todo{Description: "a"}, removed)

		got, err := q.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Todo{{Description: "b"}}, got)
	})

	t.Run("delete removes the element at the index among duplicates", func(t *testing.T) {
		q, conn := newQueue(t, newDialer)
		seed(t, q, "dup", "mid", "dup")

		removed, err := q.Delete(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, domain.Todo{Description: "dup"}, removed)

		raw, err := conn.LRange(ctx, domain.ListKey, 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{
			`{"description":"dup","completed":false}`,
			`{"description":"mid","completed":false}`,
		}, raw)
	})

	t.Run("delete by value removes the first duplicate", func(t *testing.T) {
		q, _ := newQueue(t, newDialer)
		q.WithDeleteMode(queue.DeleteByValue)
		seed(t, q, "dup", "mid", "dup")

		_, err := q.Delete(ctx, 2)
		require.NoError(t, err)

		got, err := q.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Todo{{Description: "mid"}, {Description: "dup"}}, got)
	})

	t.Run("out of range never mutates", func(t *testing.T) {
		q, _ := newQueue(t, newDialer)
		seed(t, q, "a", "b")

		_, err := q.Replace(ctx, 2, domain.Todo{Description: "x"})
		assert.ErrorIs(t, err, queue.ErrIndexOutOfRange)
		assert.Equal(t, queue.KindIndexOutOfRange, queue.KindOf(err))

		_, err = q.Delete(ctx, 5)
		assert.ErrorIs(t, err, queue.ErrIndexOutOfRange)

		_, err = q.Delete(ctx, -1)
		assert.ErrorIs(t, err, queue.ErrIndexOutOfRange)

		_, err = q.Get(ctx, 2)
		assert.ErrorIs(t, err, queue.ErrIndexOutOfRange)

		got, err := q.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Todo{{Description: "a"}, {Description: "b"}}, got)
	})

	t.Run("replace on empty collection is out of range", func(t *testing.T) {
		q, _ := newQueue(t, newDialer)
		_, err := q.Replace(ctx, 0, domain.Todo{Description: "x"})
		assert.ErrorIs(t, err, queue.ErrIndexOutOfRange)

		n, err := q.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("undecodable elements are skipped but keep their position", func(t *testing.T) {
		q, conn := newQueue(t, newDialer)
		seed(t, q, "a")
		_, err := conn.RPush(ctx, domain.ListKey, "not json")
		require.NoError(t, err)
		seed(t, q, "c")

		entries, err := q.Entries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(0), entries[0].Index)
		assert.Equal(t, int64(2), entries[1].Index)

		_, err = q.Get(ctx, 1)
		assert.ErrorIs(t, err, queue.ErrSerialization)

		_, err = q.Delete(ctx, 1)
		assert.ErrorIs(t, err, queue.ErrSerialization)

		got, err := q.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Todo{{Description: "a"}, {Description: "c"}}, got)
		n, err := q.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("incomplete records are skipped", func(t *testing.T) {
		q, conn := newQueue(t, newDialer)
		for _, v := range []string{
			`null`,
			`{}`,
			`{"foo":1}`,
			`{"description":"no state"}`,
			`{"completed":true}`,
			`{"description":"a","completed":false,"extra":1}`,
		} {
			_, err := conn.RPush(ctx, domain.ListKey, v)
			require.NoError(t, err)
		}
		seed(t, q, "kept")

		got, err := q.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Todo{{Description: "kept"}}, got)

		_, err = q.Get(ctx, 1)
		assert.ErrorIs(t, err, queue.ErrSerialization)
	})
}

func runConcurrentPushes(t *testing.T, newDialer Factory) {
	d := newDialer(t)
	p := pool.New(d, pool.Options{Size: 4, Wait: true})
	ctx := context.Background()

	const writers, perWriter = 4, 5
	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				errs <- push(ctx, p, domain.Todo{Description: fmt.Sprintf("w%d-%d", w, i)})
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	lease, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer lease.Release()
	n, err := queue.New[domain.Todo](lease, domain.ListKey, nil).Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(writers*perWriter), n)
}

func push(ctx context.Context, p *pool.Pool, todo domain.Todo) error {
	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()
	_, err = queue.New[domain.Todo](lease, domain.ListKey, nil).Push(ctx, todo)
	return err
}

func seed(t *testing.T, q *queue.Queue[domain.Todo], descriptions ...string) {
	t.Helper()
	for _, d := range descriptions {
		_, err := q.Push(context.Background(), domain.Todo{Description: d})
		require.NoError(t, err)
	}
}

func normalize(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
