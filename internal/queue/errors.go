package queue

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched with errors.Is
var (
	ErrBackend         = errors.New("backend error")
	ErrSerialization   = errors.New("serialization error")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrPoolExhausted   = errors.New("connection pool exhausted")
)

// Kind categorizes repository errors
type Kind int

const (
	// KindBackend indicates the storage call itself failed
	KindBackend Kind = iota + 1
	// KindSerialization indicates a record could not be encoded or decoded
	KindSerialization
	// KindIndexOutOfRange indicates no element exists at the requested index
	KindIndexOutOfRange
	// KindPoolExhausted indicates no backend connection was available
	KindPoolExhausted
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindBackend:
		return "backend"
	case KindSerialization:
		return "serialization"
	case KindIndexOutOfRange:
		return "index_out_of_range"
	case KindPoolExhausted:
		return "pool_exhausted"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindSerialization:
		return ErrSerialization
	case KindIndexOutOfRange:
		return ErrIndexOutOfRange
	case KindPoolExhausted:
		return ErrPoolExhausted
	default:
		return ErrBackend
	}
}

// NoIndex marks errors that are not tied to a position
const NoIndex int64 = -1

// Error is returned by every repository operation.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Op is the repository operation that failed (all, push, replace, ...).
	Op string

	// Key is the list key the operation addressed.
	Key string

	// Index is the requested position, or NoIndex.
	Index int64

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Key != "" {
		fmt.Fprintf(&b, " %s", e.Key)
	}
	if e.Index != NoIndex {
		fmt.Fprintf(&b, "[%d]", e.Index)
	}
	fmt.Fprintf(&b, ": %s", e.Kind.sentinel())
	if e.Err != nil && e.Err != e.Kind.sentinel() {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// KindOf returns the Kind of err, or 0 if err is not a repository error.
func KindOf(err error) Kind {
	var qerr *Error
	if errors.As(err, &qerr) {
		return qerr.Kind
	}
	switch {
	case errors.Is(err, ErrIndexOutOfRange):
		return KindIndexOutOfRange
	case errors.Is(err, ErrPoolExhausted):
		return KindPoolExhausted
	case errors.Is(err, ErrSerialization):
		return KindSerialization
	case errors.Is(err, ErrBackend):
		return KindBackend
	}
	return 0
}

// wrap classifies a primitive failure into an *Error. Errors that are
// already classified keep their kind; anything else is a backend error.
func wrap(op, key string, index int64, err error) error {
	if err == nil {
		return nil
	}
	var qerr *Error
	if errors.As(err, &qerr) {
		return err
	}
	kind := KindOf(err)
	if kind == 0 {
		kind = KindBackend
	}
	return &Error{Kind: kind, Op: op, Key: key, Index: index, Err: err}
}
