// Package domain defines the todo record shared by the server and the client.
//
// # Core Types
//
// Todo is a description plus a completed flag. It carries no identifier: a
// todo is addressed by its zero-based position in the stored list, and that
// position changes whenever an earlier todo is deleted.
//
// IndexedTodo pairs a todo with the position it had when it was read, so a
// filtered view can still address the underlying list.
//
// Filter selects todos by completion state (all, active, completed).
//
// # Wire Format
//
// Todos serialize to {"description": string, "completed": bool}, both on the
// HTTP API and inside the backend list.
package domain
