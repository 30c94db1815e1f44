// Package client talks to the todo HTTP API.
//
// Positions passed to Update, Toggle and Delete are the zero-based indexes
// the server returned from List; they shift when other clients delete items.
// List omits stored elements the server cannot decode, such as a corrupt
// record or one left behind by an interrupted delete. Every todo after such
// an element is then listed one position lower than where the backend keeps
// it, and addressing it by that position reaches a different element.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"remotetodos/internal/domain"
)

// DefaultURL is the todos collection of a locally running server
const DefaultURL = "http://localhost:8000/todos"

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Message, e.Details, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the server
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is a todo API client
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the collection at baseURL, e.g.
// http://localhost:8000/todos
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpClient,
	}
}

// List returns every todo in list order
func (c *Client) List(ctx context.Context) ([]domain.Todo, error) {
	var todos []domain.Todo
	if err := c.do(ctx, http.MethodGet, c.base+"/", nil, &todos); err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// ListFiltered returns the todos passing filter, each with its position in
// the decoded list, and how many todos in the whole list are still active
func (c *Client) ListFiltered(ctx context.Context, filter domain.Filter) ([]domain.IndexedTodo, int, error) {
	todos, err := c.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	return filter.Apply(domain.Index(todos)), domain.CountActive(todos), nil
}

// Create appends a todo
func (c *Client) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	var created domain.Todo
	if err := c.do(ctx, http.MethodPost, c.base+"/", todo, &created); err != nil {
		return domain.Todo{}, fmt.Errorf("failed to create todo: %w", err)
	}
	return created, nil
}

// Update replaces the todo at index
func (c *Client) Update(ctx context.Context, index int64, todo domain.Todo) (domain.Todo, error) {
	var updated domain.Todo
	if err := c.do(ctx, http.MethodPut, c.item(index), todo, &updated); err != nil {
		return domain.Todo{}, fmt.Errorf("failed to update todo %d: %w", index, err)
	}
	return updated, nil
}

// Toggle flips the completed flag of the todo at index
func (c *Client) Toggle(ctx context.Context, index int64) (domain.Todo, error) {
	var toggled domain.Todo
	if err := c.do(ctx, http.MethodPost, c.item(index)+"/toggle", nil, &toggled); err != nil {
		return domain.Todo{}, fmt.Errorf("failed to toggle todo %d: %w", index, err)
	}
	return toggled, nil
}

// Delete removes the todo at index and returns it
func (c *Client) Delete(ctx context.Context, index int64) (domain.Todo, error) {
	var removed domain.Todo
	if err := c.do(ctx, http.MethodDelete, c.item(index), nil, &removed); err != nil {
		return domain.Todo{}, fmt.Errorf("failed to delete todo %d: %w", index, err)
	}
	return removed, nil
}

// ClearCompleted removes every completed todo and returns how many went
func (c *Client) ClearCompleted(ctx context.Context) (int, error) {
	var resp domain.ClearResponse
	if err := c.do(ctx, http.MethodDelete, c.base+"/?completed=true", nil, &resp); err != nil {
		return 0, fmt.Errorf("failed to clear completed todos: %w", err)
	}
	return resp.Removed, nil
}

func (c *Client) item(index int64) string {
	return c.base + "/" + strconv.FormatInt(index, 10)
}

func (c *Client) do(ctx context.Context, method, url string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var er domain.ErrorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Error != "" {
		apiErr.Message = er.Error
		apiErr.Details = er.Details
	} else if text := strings.TrimSpace(string(data)); text != "" {
		apiErr.Details = text
	}
	return apiErr
}
