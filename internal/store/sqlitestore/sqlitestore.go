// Package sqlitestore emulates Redis list primitives on top of SQLite.
//
// Every list lives in one table. Element order is the order of an
// autoincrement id, so positions are computed with ORDER BY id and OFFSET
// instead of being stored; removing an element renumbers everything after it
// without rewriting rows.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"remotetodos/internal/pool"
	"remotetodos/internal/queue"
)

const schema = `
CREATE TABLE IF NOT EXISTS list_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	list_key TEXT NOT NULL,
	value TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_list_items_key ON list_items(list_key, id);
CREATE INDEX IF NOT EXISTS idx_list_items_value ON list_items(list_key, value);
`

// Store is a SQLite-backed dialer
type Store struct {
	db       *sql.DB
	maxConns int
}

// Open opens (creating if needed) the database at path and migrates it.
// An in-memory database is private to one connection, so ":memory:" limits
// the store to a single open connection.
func Open(path string, maxConns int) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		dsn = path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" || maxConns <= 0 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db, maxConns: maxConns}, nil
}

// MaxConns is the number of connections database/sql keeps open. Dial
// blocks beyond it, so the pool is sized to match.
func (s *Store) MaxConns() int {
	return s.maxConns
}

// Dial checks out a dedicated database connection
func (s *Store) Dial(ctx context.Context) (pool.Conn, error) {
	c, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return &conn{c: c}, nil
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

type conn struct {
	c *sql.Conn
}

func listLength(ctx context.Context, q querier, key string) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM list_items WHERE list_key = ?`, key).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count list: %w", err)
	}
	return n, nil
}

func (c *conn) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	tx, err := c.c.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := listLength(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	lo, hi, ok := queue.NormalizeRange(start, stop, n)
	if !ok {
		return []string{}, nil
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT value FROM list_items
		WHERE list_key = ?
		ORDER BY id
		LIMIT ? OFFSET ?
	`, key, hi-lo+1, lo)
	if err != nil {
		return nil, fmt.Errorf("failed to query list: %w", err)
	}
	defer rows.Close()

	values := make([]string, 0, hi-lo+1)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan list element: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating list: %w", err)
	}
	return values, nil
}

func (c *conn) RPush(ctx context.Context, key, value string) (int64, error) {
	tx, err := c.c.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO list_items (list_key, value) VALUES (?, ?)`, key, value); err != nil {
		return 0, fmt.Errorf("failed to append element: %w", err)
	}
	n, err := listLength(ctx, tx, key)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit append: %w", err)
	}
	return n, nil
}

func (c *conn) LSet(ctx context.Context, key string, index int64, value string) error {
	tx, err := c.c.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := listLength(ctx, tx, key)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: no such key %q", queue.ErrIndexOutOfRange, key)
	}
	i, ok := queue.NormalizeIndex(index, n)
	if !ok {
		return fmt.Errorf("%w: %d of %d", queue.ErrIndexOutOfRange, index, n)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE list_items SET value = ?
		WHERE id = (
			SELECT id FROM list_items WHERE list_key = ? ORDER BY id LIMIT 1 OFFSET ?
		)
	`, value, key, i); err != nil {
		return fmt.Errorf("failed to set element: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit set: %w", err)
	}
	return nil
}

func (c *conn) LIndex(ctx context.Context, key string, index int64) (string, error) {
	tx, err := c.c.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	i := index
	if index < 0 {
		n, err := listLength(ctx, tx, key)
		if err != nil {
			return "", err
		}
		var ok bool
		if i, ok = queue.NormalizeIndex(index, n); !ok {
			return "", fmt.Errorf("%w: %d of %d", queue.ErrIndexOutOfRange, index, n)
		}
	}

	var value string
	err = tx.QueryRowContext(ctx, `
		SELECT value FROM list_items
		WHERE list_key = ?
		ORDER BY id
		LIMIT 1 OFFSET ?
	`, key, i).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s[%d]", queue.ErrIndexOutOfRange, key, index)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read element: %w", err)
	}
	return value, nil
}

func (c *conn) LRem(ctx context.Context, key string, count int64, value string) (int64, error) {
	order, limit := "ASC", count
	switch {
	case count < 0:
		order, limit = "DESC", -count
	case count == 0:
		limit = -1 // no limit
	}

	res, err := c.c.ExecContext(ctx, `
		DELETE FROM list_items
		WHERE id IN (
			SELECT id FROM list_items
			WHERE list_key = ? AND value = ?
			ORDER BY id `+order+`
			LIMIT ?
		)
	`, key, value, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to remove element: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count removed elements: %w", err)
	}
	return n, nil
}

func (c *conn) LLen(ctx context.Context, key string) (int64, error) {
	return listLength(ctx, c.c, key)
}

func (c *conn) Close() error {
	return c.c.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
