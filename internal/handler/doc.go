// Package handler implements the HTTP layer of the todo API.
//
// # Routes
//
//	GET    /todos/                 list todos (?filter=all|active|completed)
//	POST   /todos/                 append a todo, echoes it back
//	DELETE /todos/?completed=true  remove every completed todo
//	PUT    /todos/{index}          replace the todo at index
//	DELETE /todos/{index}          remove the todo at index, returns it
//	POST   /todos/{index}/toggle   flip the completed flag
//	GET    /healthz                backend ping and pool usage
//
// Indexes are zero-based positions in the stored list at request time.
//
// # Errors
//
// Errors are returned as JSON with {error, details}. Repository error kinds
// map onto statuses: a missing position is 404, an unparseable index or body
// is 400, an undecodable stored element is 500, an exhausted connection pool
// is 503 and any other backend failure is 502.
//
// # Middleware
//
// Chain composes Recover, CORS and Logger around the mux. Logger records
// status, size and duration through httpsnoop.
package handler
