package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"remotetodos/internal/domain"
	"remotetodos/internal/pool"
	"remotetodos/internal/queue"
	"remotetodos/internal/service"
)

// TodoHandler handles todo API requests
type TodoHandler struct {
	svc *service.TodoService
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// HealthResponse reports backend reachability and pool usage
type HealthResponse struct {
	Status string     `json:"status"`
	Pool   pool.Stats `json:"pool"`
	Error  string     `json:"error,omitempty"`
}

// Register mounts the todo routes on mux
func (h *TodoHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /todos/{$}", h.ListTodos)
	mux.HandleFunc("POST /todos/{$}", h.CreateTodo)
	mux.HandleFunc("DELETE /todos/{$}", h.ClearCompleted)
	mux.HandleFunc("PUT /todos/{index}", h.UpdateTodo)
	mux.HandleFunc("DELETE /todos/{index}", h.DeleteTodo)
	mux.HandleFunc("POST /todos/{index}/toggle", h.ToggleTodo)
	mux.HandleFunc("GET /healthz", h.Health)
}

// ListTodos returns all todos, optionally filtered
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	filter, err := domain.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		h.writeError(w, "Invalid filter", err.Error(), http.StatusBadRequest)
		return
	}

	todos, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, "Failed to list todos", err, false)
		return
	}

	h.writeJSON(w, todos, http.StatusOK)
}

// CreateTodo appends a todo and echoes it back
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := h.decodeTodo(w, r)
	if !ok {
		return
	}

	if _, err := h.svc.Create(r.Context(), todo); err != nil {
		h.writeServiceError(w, "Failed to create todo", err, true)
		return
	}

	h.writeJSON(w, todo, http.StatusOK)
}

// UpdateTodo replaces the todo at the given position
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	index, ok := h.parseIndex(w, r)
	if !ok {
		return
	}
	todo, ok := h.decodeTodo(w, r)
	if !ok {
		return
	}

	if err := h.svc.Update(r.Context(), index, todo); err != nil {
		h.writeServiceError(w, "Failed to update todo", err, true)
		return
	}

	h.writeJSON(w, todo, http.StatusOK)
}

// ToggleTodo flips the completed flag of the todo at the given position
func (h *TodoHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	index, ok := h.parseIndex(w, r)
	if !ok {
		return
	}

	todo, err := h.svc.Toggle(r.Context(), index)
	if err != nil {
		h.writeServiceError(w, "Failed to toggle todo", err, false)
		return
	}

	h.writeJSON(w, todo, http.StatusOK)
}

// DeleteTodo removes the todo at the given position and returns it
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	index, ok := h.parseIndex(w, r)
	if !ok {
		return
	}

	todo, err := h.svc.Delete(r.Context(), index)
	if err != nil {
		h.writeServiceError(w, "Failed to delete todo", err, false)
		return
	}

	h.writeJSON(w, todo, http.StatusOK)
}

// ClearCompleted removes every completed todo. The caller must opt in with
// ?completed=true so a bare DELETE on the collection is rejected.
func (h *TodoHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("completed") != "true" {
		h.writeError(w, "Refusing to clear todos", "only ?completed=true is supported", http.StatusBadRequest)
		return
	}

	removed, err := h.svc.ClearCompleted(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to clear completed todos", err, false)
		return
	}

	h.writeJSON(w, domain.ClearResponse{Removed: removed}, http.StatusOK)
}

// Health reports whether the backend answers
func (h *TodoHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Pool: h.svc.Stats()}
	status := http.StatusOK
	if err := h.svc.Ping(r.Context()); err != nil {
		resp.Status = "unavailable"
		resp.Error = err.Error()
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, resp, status)
}

// Helper methods

func (h *TodoHandler) decodeTodo(w http.ResponseWriter, r *http.Request) (domain.Todo, bool) {
	var todo domain.Todo
	if err := json.NewDecoder(r.Body).Decode(&todo); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return todo, false
	}
	return todo, true
}

func (h *TodoHandler) parseIndex(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("index")
	index, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || index < 0 {
		h.writeError(w, "Invalid todo index", "index must be a non-negative integer, got "+strconv.Quote(raw), http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

// writeServiceError maps repository error kinds onto HTTP statuses.
// fromRequest marks operations whose serialization input came from the
// request body, where an encoding failure is the client's fault.
func (h *TodoHandler) writeServiceError(w http.ResponseWriter, message string, err error, fromRequest bool) {
	status := statusFor(err, fromRequest)
	if status >= http.StatusInternalServerError {
		log.Printf("%s: %v", message, err)
	}
	h.writeError(w, message, err.Error(), status)
}

func statusFor(err error, fromRequest bool) int {
	switch {
	case errors.Is(err, service.ErrInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, queue.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, queue.ErrPoolExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, queue.ErrSerialization):
		if fromRequest {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (h *TodoHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *TodoHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(domain.ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
