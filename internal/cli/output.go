package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"remotetodos/internal/client"
	"remotetodos/internal/domain"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Server rejected the request or could not be reached
	ExitCommandError = 2 // Bad arguments or flags
	ExitNotFound     = 3 // No todo at the given position
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if client.IsNotFound(err) {
		return ExitNotFound
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope for command output.
type CLIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

// listData is the JSON payload of the list command
type listData struct {
	Todos     []domain.IndexedTodo `json:"todos"`
	ItemsLeft int                  `json:"items_left"`
}

// List prints the visible todos and a footer counting the active ones in
// the whole list.
func (f *OutputFormatter) List(visible []domain.IndexedTodo, left int) error {
	if f.Format == "json" {
		if visible == nil {
			visible = []domain.IndexedTodo{}
		}
		return f.json(listData{Todos: visible, ItemsLeft: left})
	}

	if len(visible) == 0 {
		fmt.Fprintln(f.Writer, "No todos")
	}
	for _, it := range visible {
		fmt.Fprintln(f.Writer, line(it))
	}
	fmt.Fprintln(f.Writer, itemsLeft(left))
	return nil
}

// Todo prints a single todo after a verb such as "added" or "removed".
func (f *OutputFormatter) Todo(verb string, it domain.IndexedTodo) error {
	if f.Format == "json" {
		return f.json(it)
	}
	fmt.Fprintf(f.Writer, "%s %s\n", verb, line(it))
	return nil
}

// Cleared prints how many completed todos were removed.
func (f *OutputFormatter) Cleared(n int) error {
	if f.Format == "json" {
		return f.json(map[string]int{"removed": n})
	}
	if n == 1 {
		fmt.Fprintln(f.Writer, "removed 1 completed todo")
		return nil
	}
	fmt.Fprintf(f.Writer, "removed %d completed todos\n", n)
	return nil
}

func (f *OutputFormatter) json(data interface{}) error {
	return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
}

func line(it domain.IndexedTodo) string {
	mark := " "
	if it.Completed {
		mark = "x"
	}
	return fmt.Sprintf("%d [%s] %s", it.Index, mark, it.Description)
}

func itemsLeft(n int) string {
	if n == 1 {
		return "1 item left"
	}
	return fmt.Sprintf("%d items left", n)
}
