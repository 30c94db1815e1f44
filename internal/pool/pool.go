// Package pool bounds the number of live backend connections.
//
// Each request acquires one Lease, uses it for its repository calls and
// releases it on every exit path:
//
//	lease, err := p.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer lease.Release()
//
// When every slot is taken Acquire either fails immediately or waits up to
// the configured timeout, and then reports queue.ErrPoolExhausted.
package pool

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"remotetodos/internal/queue"
)

// Conn is a single backend connection bound to the list primitives
type Conn interface {
	queue.ListConn
	Close() error
}

// Dialer opens backend connections
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
	Ping(ctx context.Context) error
	Close() error
}

// Limiter is implemented by dialers that cannot hold more than MaxConns
// connections open at once. New clamps the pool size to that limit so a
// full backend is reported as pool exhaustion rather than blocking in Dial.
type Limiter interface {
	MaxConns() int
}

// Options configures a Pool
type Options struct {
	// Size is the maximum number of live leases.
	Size int
	// Wait blocks Acquire until a slot frees up instead of failing fast.
	Wait bool
	// AcquireTimeout bounds how long a waiting Acquire blocks. Zero waits
	// until the caller's context is done.
	AcquireTimeout time.Duration
}

// DefaultOptions returns a small blocking pool
func DefaultOptions() Options {
	return Options{
		Size:           10,
		Wait:           true,
		AcquireTimeout: 2 * time.Second,
	}
}

// Stats is a point-in-time view of pool usage
type Stats struct {
	Size  int   `json:"size"`
	InUse int64 `json:"in_use"`
}

// Pool hands out at most Size concurrent leases
type Pool struct {
	dialer Dialer
	sem    *semaphore.Weighted
	opts   Options
	inUse  atomic.Int64
}

// New creates a pool over dialer
func New(dialer Dialer, opts Options) *Pool {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if l, ok := dialer.(Limiter); ok {
		if limit := l.MaxConns(); limit > 0 && opts.Size > limit {
			log.Printf("pool: backend allows %d connections, reducing pool size from %d", limit, opts.Size)
			opts.Size = limit
		}
	}
	return &Pool{
		dialer: dialer,
		sem:    semaphore.NewWeighted(int64(opts.Size)),
		opts:   opts,
	}
}

// Acquire reserves a slot and opens a connection for it
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if err := p.reserve(ctx); err != nil {
		return nil, err
	}

	conn, err := p.dialer.Dial(ctx)
	if err != nil {
		p.sem.Release(1)
		kind := queue.KindOf(err)
		if kind == 0 {
			kind = queue.KindBackend
		}
		return nil, &queue.Error{Kind: kind, Op: "acquire", Index: queue.NoIndex, Err: err}
	}

	p.inUse.Add(1)
	return &Lease{Conn: conn, pool: p}, nil
}

func (p *Pool) reserve(ctx context.Context) error {
	if !p.opts.Wait {
		if !p.sem.TryAcquire(1) {
			return exhausted(nil)
		}
		return nil
	}

	waitCtx := ctx
	if p.opts.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.opts.AcquireTimeout)
		defer cancel()
	}

	if err := p.sem.Acquire(waitCtx, 1); err != nil {
		// The caller gave up; this is not an exhaustion signal.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return exhausted(fmt.Errorf("no connection within %s", p.opts.AcquireTimeout))
	}
	return nil
}

// Stats reports the pool size and the number of leases in use
func (p *Pool) Stats() Stats {
	return Stats{Size: p.opts.Size, InUse: p.inUse.Load()}
}

// Ping checks the backend is reachable
func (p *Pool) Ping(ctx context.Context) error {
	return p.dialer.Ping(ctx)
}

// Close closes the underlying dialer
func (p *Pool) Close() error {
	return p.dialer.Close()
}

// Lease is a connection checked out of the pool
type Lease struct {
	Conn
	pool *Pool
	once sync.Once
}

// Release closes the connection and frees the slot. Safe to call twice.
func (l *Lease) Release() {
	l.once.Do(func() {
		if err := l.Conn.Close(); err != nil {
			log.Printf("pool: failed to close connection: %v", err)
		}
		l.pool.inUse.Add(-1)
		l.pool.sem.Release(1)
	})
}

func exhausted(cause error) error {
	return &queue.Error{Kind: queue.KindPoolExhausted, Op: "acquire", Index: queue.NoIndex, Err: cause}
}
