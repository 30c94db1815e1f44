package pool_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotetodos/internal/pool"
	"remotetodos/internal/queue"
	"remotetodos/internal/store/memstore"
)

// countingDialer wraps memstore and counts open connections
type countingDialer struct {
	*memstore.Store
	dialErr error
	open    int
	closed  int
}

func (d *countingDialer) Dial(ctx context.Context) (pool.Conn, error) {
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	conn, err := d.Store.Dial(ctx)
	if err != nil {
		return nil, err
	}
	d.open++
	return &countingConn{Conn: conn, d: d}, nil
}

type countingConn struct {
	pool.Conn
	d *countingDialer
}

func (c *countingConn) Close() error {
	c.d.closed++
	return c.Conn.Close()
}

func TestAcquireRelease(t *testing.T) {
	d := &countingDialer{Store: memstore.New()}
	p := pool.New(d, pool.Options{Size: 2})

	lease, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pool.Stats{Size: 2, InUse: 1}, p.Stats())

	_, err = lease.RPush(context.Background(), "todos", "a")
	require.NoError(t, err)

	lease.Release()
	lease.Release()
	assert.Equal(t, pool.Stats{Size: 2, InUse: 0}, p.Stats())
	assert.Equal(t, 1, d.open)
	assert.Equal(t, 1, d.closed)
}

func TestFailFastWhenExhausted(t *testing.T) {
	p := pool.New(memstore.New(), pool.Options{Size: 1, Wait: false})

	first, err := p.Acquire(context.Background())
	require.NoError(t, err)

	start := time.Now()
	_, err = p.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, queue.ErrPoolExhausted)
	assert.Equal(t, queue.KindPoolExhausted, queue.KindOf(err))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	first.Release()
	second, err := p.Acquire(context.Background())
	require.NoError(t, err)
	second.Release()
}

func TestWaitTimesOut(t *testing.T) {
	p := pool.New(memstore.New(), pool.Options{Size: 1, Wait: true, AcquireTimeout: 20 * time.Millisecond})

	first, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer first.Release()

	_, err = p.Acquire(context.Background())
	assert.ErrorIs(t, err, queue.ErrPoolExhausted)
}

func TestWaitSucceedsWhenReleased(t *testing.T) {
	p := pool.New(memstore.New(), pool.Options{Size: 1, Wait: true, AcquireTimeout: time.Second})

	first, err := p.Acquire(context.Background())
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		first.Release()
	}()

	second, err := p.Acquire(context.Background())
	require.NoError(t, err)
	second.Release()
}

func TestCallerCancellationIsNotExhaustion(t *testing.T) {
	p := pool.New(memstore.New(), pool.Options{Size: 1, Wait: true})

	first, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer first.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = p.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, queue.ErrPoolExhausted)
}

func TestDialFailureFreesSlot(t *testing.T) {
	d := &countingDialer{Store: memstore.New(), dialErr: errors.New("connection refused")}
	p := pool.New(d, pool.Options{Size: 1, Wait: false})

	_, err := p.Acquire(context.Background())
	assert.ErrorIs(t, err, queue.ErrBackend)

	d.dialErr = nil
	lease, err := p.Acquire(context.Background())
	require.NoError(t, err)
	lease.Release()
}

// limitedDialer holds at most max connections, like an in-memory SQLite
// database
type limitedDialer struct {
	*memstore.Store
	max int
}

func (d *limitedDialer) MaxConns() int { return d.max }

func TestSizeClampedToDialerLimit(t *testing.T) {
	p := pool.New(&limitedDialer{Store: memstore.New(), max: 1}, pool.Options{Size: 10, Wait: false})
	assert.Equal(t, 1, p.Stats().Size)

	first, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer first.Release()

	start := time.Now()
	_, err = p.Acquire(context.Background())
	assert.ErrorIs(t, err, queue.ErrPoolExhausted)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestSizeBelowDialerLimitIsKept(t *testing.T) {
	p := pool.New(&limitedDialer{Store: memstore.New(), max: 8}, pool.Options{Size: 3})
	assert.Equal(t, 3, p.Stats().Size)
}

func TestDefaultSize(t *testing.T) {
	p := pool.New(memstore.New(), pool.Options{})
	assert.Equal(t, pool.DefaultOptions().Size, p.Stats().Size)
}
