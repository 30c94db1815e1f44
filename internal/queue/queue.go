package queue

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Repository defines positional CRUD over an ordered collection of records
type Repository[T any] interface {
	// Read operations
	All(ctx context.Context) ([]T, error)
	Entries(ctx context.Context) ([]Entry[T], error)
	Get(ctx context.Context, index int64) (T, error)
	Len(ctx context.Context) (int64, error)

	// Write operations
	Push(ctx context.Context, record T) (int64, error)
	Replace(ctx context.Context, index int64, record T) (int64, error)
	Delete(ctx context.Context, index int64) (T, error)
}

// Entry is a decoded record together with its position in the backend list
type Entry[T any] struct {
	Index  int64
	Record T
}

// DeleteMode selects how Delete removes the element at an index
type DeleteMode string

const (
	// DeletePositional tombstones the slot before removing it, so exactly the
	// element at the index is removed.
	DeletePositional DeleteMode = "positional"
	// DeleteByValue removes the first element equal to the one at the index.
	// With duplicate records this may remove an earlier copy.
	DeleteByValue DeleteMode = "by-value"
)

// ParseDeleteMode converts a string to a DeleteMode. Empty means positional.
func ParseDeleteMode(s string) (DeleteMode, error) {
	switch DeleteMode(s) {
	case "", DeletePositional:
		return DeletePositional, nil
	case DeleteByValue:
		return DeleteByValue, nil
	default:
		return "", fmt.Errorf("unknown delete mode %q", s)
	}
}

// tombstonePrefix is not valid JSON, so a tombstone left behind by an
// interrupted delete never decodes and All skips it.
const tombstonePrefix = "#tombstone:"

// Queue implements Repository over a single backend list
type Queue[T any] struct {
	conn       ListConn
	key        string
	codec      Codec[T]
	deleteMode DeleteMode
}

var _ Repository[struct{}] = (*Queue[struct{}])(nil)

// New creates a queue bound to conn and key. A nil codec stores JSON.
func New[T any](conn ListConn, key string, codec Codec[T]) *Queue[T] {
	if codec == nil {
		codec = JSONCodec[T]{}
	}
	return &Queue[T]{
		conn:       conn,
		key:        key,
		codec:      codec,
		deleteMode: DeletePositional,
	}
}

// WithDeleteMode sets how Delete removes elements
func (q *Queue[T]) WithDeleteMode(mode DeleteMode) *Queue[T] {
	if mode != "" {
		q.deleteMode = mode
	}
	return q
}

// All returns every decodable record in list order. Elements that fail to
// decode are skipped.
func (q *Queue[T]) All(ctx context.Context) ([]T, error) {
	entries, err := q.Entries(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]T, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record)
	}
	return records, nil
}

// Entries returns every decodable record with its backend position. Skipped
// elements still occupy a position, so indexes can have gaps.
func (q *Queue[T]) Entries(ctx context.Context) ([]Entry[T], error) {
	rows, err := q.conn.LRange(ctx, q.key, 0, -1)
	if err != nil {
		return nil, wrap("all", q.key, NoIndex, err)
	}

	entries := make([]Entry[T], 0, len(rows))
	skipped := 0
	for i, row := range rows {
		record, err := q.codec.Decode(row)
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, Entry[T]{Index: int64(i), Record: record})
	}
	if skipped > 0 {
		log.Printf("queue %s: skipped %d undecodable elements", q.key, skipped)
	}
	return entries, nil
}

// Get returns the record at index
func (q *Queue[T]) Get(ctx context.Context, index int64) (T, error) {
	var zero T
	if index < 0 {
		return zero, q.outOfRange("get", index)
	}
	raw, err := q.conn.LIndex(ctx, q.key, index)
	if err != nil {
		return zero, wrap("get", q.key, index, err)
	}
	record, err := q.codec.Decode(raw)
	if err != nil {
		return zero, &Error{Kind: KindSerialization, Op: "get", Key: q.key, Index: index, Err: err}
	}
	return record, nil
}

// Len returns the number of elements in the list, decodable or not
func (q *Queue[T]) Len(ctx context.Context) (int64, error) {
	n, err := q.conn.LLen(ctx, q.key)
	if err != nil {
		return 0, wrap("len", q.key, NoIndex, err)
	}
	return n, nil
}

// Push appends record at the tail and returns the new length
func (q *Queue[T]) Push(ctx context.Context, record T) (int64, error) {
	data, err := q.codec.Encode(record)
	if err != nil {
		return 0, &Error{Kind: KindSerialization, Op: "push", Key: q.key, Index: NoIndex, Err: err}
	}
	n, err := q.conn.RPush(ctx, q.key, data)
	if err != nil {
		return 0, wrap("push", q.key, NoIndex, err)
	}
	return n, nil
}

// Replace overwrites the element at index and returns the index
func (q *Queue[T]) Replace(ctx context.Context, index int64, record T) (int64, error) {
	if index < 0 {
		return 0, q.outOfRange("replace", index)
	}
	data, err := q.codec.Encode(record)
	if err != nil {
		return 0, &Error{Kind: KindSerialization, Op: "replace", Key: q.key, Index: index, Err: err}
	}
	if err := q.conn.LSet(ctx, q.key, index, data); err != nil {
		return 0, wrap("replace", q.key, index, err)
	}
	return index, nil
}

// Delete removes the element at index and returns the decoded original.
//
// The element is removed before it is decoded, so an undecodable element is
// still removed and reported with a serialization error.
func (q *Queue[T]) Delete(ctx context.Context, index int64) (T, error) {
	var zero T
	if index < 0 {
		return zero, q.outOfRange("delete", index)
	}

	raw, err := q.conn.LIndex(ctx, q.key, index)
	if err != nil {
		return zero, wrap("delete", q.key, index, err)
	}

	target := raw
	if q.deleteMode == DeletePositional {
		target = tombstonePrefix + uuid.NewString()
		if err := q.conn.LSet(ctx, q.key, index, target); err != nil {
			return zero, wrap("delete", q.key, index, err)
		}
	}

	removed, err := q.conn.LRem(ctx, q.key, 1, target)
	if err != nil {
		return zero, wrap("delete", q.key, index, err)
	}
	if removed == 0 {
		// Another writer removed the element between the read and the removal.
		return zero, q.outOfRange("delete", index)
	}

	record, err := q.codec.Decode(raw)
	if err != nil {
		return zero, &Error{Kind: KindSerialization, Op: "delete", Key: q.key, Index: index, Err: err}
	}
	return record, nil
}

func (q *Queue[T]) outOfRange(op string, index int64) error {
	return &Error{Kind: KindIndexOutOfRange, Op: op, Key: q.key, Index: index}
}
