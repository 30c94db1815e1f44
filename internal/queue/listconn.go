package queue

import "context"

// ListConn is the primitive set a backend exposes for one list.
//
// Semantics follow Redis lists: indexes are zero-based, negative indexes
// count from the tail, and LRange with stop = -1 reads to the end. LIndex and
// LSet report a missing element with an error wrapping ErrIndexOutOfRange.
// LRem removes up to |count| elements equal to value, from the head when
// count > 0, from the tail when count < 0 and all of them when count = 0.
type ListConn interface {
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	RPush(ctx context.Context, key, value string) (int64, error)
	LSet(ctx context.Context, key string, index int64, value string) error
	LIndex(ctx context.Context, key string, index int64) (string, error)
	LRem(ctx context.Context, key string, count int64, value string) (int64, error)
	LLen(ctx context.Context, key string) (int64, error)
}

// NormalizeRange resolves Redis-style range bounds against a list of length
// n. It returns the inclusive [lo, hi] window and false if the window is
// empty.
func NormalizeRange(start, stop, n int64) (lo, hi int64, ok bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}

// NormalizeIndex resolves a Redis-style index against a list of length n.
func NormalizeIndex(index, n int64) (int64, bool) {
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return 0, false
	}
	return index, true
}
