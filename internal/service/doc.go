// Package service implements the todo operations behind the HTTP API.
//
// # Services
//
// TodoService lists, creates, updates, toggles and deletes todos. Every
// operation acquires one connection lease from the pool, binds a
// queue.Queue to it and releases the lease on every exit path, so a request
// never holds more than one backend connection.
//
// # Event System
//
// Successful writes publish events on the EventBus (todo_created,
// todo_updated, todo_deleted, todos_cleared). The server forwards them to
// Server-Sent Events clients. Publishing never blocks; slow subscribers
// miss events.
//
// # Consistency
//
// Nothing serializes positional operations across requests. Two clients
// editing or deleting overlapping positions race, and the last writer wins.
package service
