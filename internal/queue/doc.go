// Package queue implements the positional repository used to persist todos.
//
// A Queue maps CRUD operations onto the list primitives of a remote store
// (range, push, index-set, index-lookup, remove-by-value). Records have no
// identity of their own: a record is addressed by its zero-based position in
// the list at the time of the operation.
//
// # Backends
//
// Any type implementing ListConn can back a Queue. The store subpackages
// provide Redis, SQLite and in-memory implementations.
//
// # Positional Identity
//
// Positions are not stable. A delete renumbers every following record, and
// nothing serializes positional operations issued by different clients.
// Callers that hold an index across requests race with other writers; the
// last writer wins.
//
// # Deletion
//
// Remote lists remove by value, not by position. Delete therefore reads the
// element at the index, overwrites that slot with a unique tombstone and then
// removes the tombstone by value. This removes exactly the element at the
// index even when equal records exist elsewhere in the list. DeleteByValue
// restores the plain read-then-remove-by-value behavior, which removes the
// first equal record instead.
//
// # Errors
//
// Every failure is an *Error whose Kind distinguishes backend failures,
// serialization failures, out-of-range indexes and pool exhaustion. Use
// errors.Is with ErrBackend, ErrSerialization, ErrIndexOutOfRange or
// ErrPoolExhausted to classify.
package queue
