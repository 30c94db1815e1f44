// Package redisstore binds the list primitives to a Redis server.
//
// Each pool lease pins one connection from the go-redis client pool, so a
// request runs all of its commands on the same connection.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"remotetodos/internal/pool"
	"remotetodos/internal/queue"
)

// Options configures the Redis client
type Options struct {
	PoolSize    int
	DialTimeout time.Duration
}

// Store is a Redis-backed dialer
type Store struct {
	client *redis.Client
}

// Open connects to the Redis server at rawURL (redis:// or rediss://)
func Open(rawURL string, opts Options) (*Store, error) {
	redisOpts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if opts.PoolSize > 0 {
		redisOpts.PoolSize = opts.PoolSize
	}
	if opts.DialTimeout > 0 {
		redisOpts.DialTimeout = opts.DialTimeout
	}
	return New(redis.NewClient(redisOpts)), nil
}

// New wraps an existing client
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// MaxConns is the go-redis pool size; each lease pins one of its connections
func (s *Store) MaxConns() int {
	return s.client.Options().PoolSize
}

// Dial pins a connection from the client pool
func (s *Store) Dial(ctx context.Context) (pool.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &conn{c: s.client.Conn()}, nil
}

// Ping checks the server answers
func (s *Store) Ping(ctx context.Context) error {
	return mapError(s.client.Ping(ctx).Err())
}

// Close closes the client and its pool
func (s *Store) Close() error {
	return s.client.Close()
}

type conn struct {
	c *redis.Conn
}

func (c *conn) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	values, err := c.c.LRange(ctx, key, start, stop).Result()
	return values, mapError(err)
}

func (c *conn) RPush(ctx context.Context, key, value string) (int64, error) {
	n, err := c.c.RPush(ctx, key, value).Result()
	return n, mapError(err)
}

func (c *conn) LSet(ctx context.Context, key string, index int64, value string) error {
	return mapError(c.c.LSet(ctx, key, index, value).Err())
}

func (c *conn) LIndex(ctx context.Context, key string, index int64) (string, error) {
	value, err := c.c.LIndex(ctx, key, index).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s[%d]", queue.ErrIndexOutOfRange, key, index)
	}
	return value, mapError(err)
}

func (c *conn) LRem(ctx context.Context, key string, count int64, value string) (int64, error) {
	n, err := c.c.LRem(ctx, key, count, value).Result()
	return n, mapError(err)
}

func (c *conn) LLen(ctx context.Context, key string) (int64, error) {
	n, err := c.c.LLen(ctx, key).Result()
	return n, mapError(err)
}

func (c *conn) Close() error {
	return c.c.Close()
}

// mapError translates the server's error replies into queue sentinels.
// LSET answers "ERR index out of range" for a bad index and
// "ERR no such key" when the list does not exist.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "index out of range"), strings.Contains(msg, "no such key"):
		return fmt.Errorf("%w: %v", queue.ErrIndexOutOfRange, err)
	case strings.Contains(msg, "connection pool timeout"), strings.Contains(msg, "connection pool exhausted"):
		return fmt.Errorf("%w: %v", queue.ErrPoolExhausted, err)
	}
	return err
}
