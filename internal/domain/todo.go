package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ListKey is the backend key holding the todo list
const ListKey = "todos"

// Todo is a single todo item. It has no ID; its identity is its position
// in the list.
type Todo struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// todoFields is the wire form of a Todo. Pointers tell a missing field
// apart from its zero value.
type todoFields struct {
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func (f todoFields) todo() (Todo, error) {
	if f.Description == nil {
		return Todo{}, errors.New(`missing field "description"`)
	}
	if f.Completed == nil {
		return Todo{}, errors.New(`missing field "completed"`)
	}
	return Todo{Description: *f.Description, Completed: *f.Completed}, nil
}

// decodeStrict decodes a JSON object into v, rejecting null and unknown fields
func decodeStrict(data []byte, v interface{}) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errors.New("todo must be an object, got null")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// UnmarshalJSON requires both fields and rejects anything else, so a stored
// null or {} never decodes to an empty todo.
func (t *Todo) UnmarshalJSON(data []byte) error {
	var f todoFields
	if err := decodeStrict(data, &f); err != nil {
		return err
	}
	todo, err := f.todo()
	if err != nil {
		return err
	}
	*t = todo
	return nil
}

// NewTodo creates an open todo
func NewTodo(description string) Todo {
	return Todo{Description: description}
}

// Toggled returns a copy with the completed flag flipped
func (t Todo) Toggled() Todo {
	t.Completed = !t.Completed
	return t
}

// IndexedTodo pairs a todo with its position at the time it was read
type IndexedTodo struct {
	Index int64 `json:"index"`
	Todo
}

// UnmarshalJSON reads the flattened form IndexedTodo marshals to
func (it *IndexedTodo) UnmarshalJSON(data []byte) error {
	var f struct {
		Index *int64 `json:"index"`
		todoFields
	}
	if err := decodeStrict(data, &f); err != nil {
		return err
	}
	if f.Index == nil {
		return errors.New(`missing field "index"`)
	}
	todo, err := f.todo()
	if err != nil {
		return err
	}
	*it = IndexedTodo{Index: *f.Index, Todo: todo}
	return nil
}

// Filter selects todos by completion state
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists every filter in display order
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// FilterNames returns the filter names joined for help and error text
func FilterNames() string {
	names := make([]string, len(Filters))
	for i, f := range Filters {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// ParseFilter converts a string to a Filter. The empty string means all.
func ParseFilter(s string) (Filter, error) {
	name := Filter(strings.ToLower(strings.TrimSpace(s)))
	if name == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if f == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q (want one of %s)", s, FilterNames())
}

// Fit reports whether the todo passes the filter
func (f Filter) Fit(t Todo) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Apply returns the todos passing the filter, keeping their positions
func (f Filter) Apply(todos []IndexedTodo) []IndexedTodo {
	result := make([]IndexedTodo, 0, len(todos))
	for _, t := range todos {
		if f.Fit(t.Todo) {
			result = append(result, t)
		}
	}
	return result
}

// Index assigns list positions to todos read in order
func Index(todos []Todo) []IndexedTodo {
	result := make([]IndexedTodo, len(todos))
	for i, t := range todos {
		result[i] = IndexedTodo{Index: int64(i), Todo: t}
	}
	return result
}

// CountActive returns how many todos are not completed
func CountActive(todos []Todo) int {
	n := 0
	for _, t := range todos {
		if !t.Completed {
			n++
		}
	}
	return n
}
