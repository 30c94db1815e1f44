// Package store selects a list backend from a connection URL.
//
// Supported schemes:
//
//	redis://host:port/db, rediss://...   Redis (default)
//	sqlite://path/to/file.db             SQLite file
//	sqlite://:memory:                    SQLite in memory (single connection)
//	memory://                            in-process lists
package store

import (
	"fmt"
	"strings"
	"time"

	"remotetodos/internal/pool"
	"remotetodos/internal/store/memstore"
	"remotetodos/internal/store/redisstore"
	"remotetodos/internal/store/sqlitestore"
)

// DefaultURL is used when no DATABASE_URL is configured
const DefaultURL = "redis://localhost:6379"

// Options tunes the selected backend
type Options struct {
	PoolSize    int
	DialTimeout time.Duration
}

// Open returns a dialer for rawURL
func Open(rawURL string, opts Options) (pool.Dialer, error) {
	if rawURL == "" {
		rawURL = DefaultURL
	}

	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return nil, fmt.Errorf("invalid database url %q: missing scheme", rawURL)
	}

	switch strings.ToLower(scheme) {
	case "redis", "rediss", "unix":
		return redisstore.Open(rawURL, redisstore.Options{
			PoolSize:    opts.PoolSize,
			DialTimeout: opts.DialTimeout,
		})
	case "sqlite", "sqlite3":
		if rest == "" {
			return nil, fmt.Errorf("invalid database url %q: missing path", rawURL)
		}
		return sqlitestore.Open(rest, opts.PoolSize)
	case "memory", "mem":
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// Redact hides the password in a connection URL for logging
func Redact(rawURL string) string {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return rawURL
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return rawURL
	}
	if user, _, hasPass := strings.Cut(userinfo, ":"); hasPass {
		return scheme + "://" + user + ":xxxxx@" + host
	}
	return rawURL
}
