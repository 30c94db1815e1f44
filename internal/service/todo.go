package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"remotetodos/internal/domain"
	"remotetodos/internal/pool"
	"remotetodos/internal/queue"
)

// ErrInvalidIndex is returned for negative positions
var ErrInvalidIndex = errors.New("index must be a non-negative integer")

// TodoService runs todo operations, each on its own pooled connection
type TodoService struct {
	pool       *pool.Pool
	key        string
	deleteMode atomic.Value // queue.DeleteMode
	eventBus   *EventBus
}

// NewTodoService creates a new todo service for the list at key
func NewTodoService(p *pool.Pool, key string, eventBus *EventBus) *TodoService {
	if key == "" {
		key = domain.ListKey
	}
	if eventBus == nil {
		eventBus = NewEventBus()
	}
	s := &TodoService{
		pool:     p,
		key:      key,
		eventBus: eventBus,
	}
	s.deleteMode.Store(queue.DeletePositional)
	return s
}

// SetDeleteMode selects how deletes remove elements. Safe to call while
// requests are running; it applies to operations started afterwards.
func (s *TodoService) SetDeleteMode(mode queue.DeleteMode) {
	s.deleteMode.Store(mode)
}

// DeleteMode returns the current delete mode
func (s *TodoService) DeleteMode() queue.DeleteMode {
	return s.deleteMode.Load().(queue.DeleteMode)
}

// withQueue acquires a lease, binds a queue to it and releases the lease on
// every exit path
func (s *TodoService) withQueue(ctx context.Context, fn func(q *queue.Queue[domain.Todo]) error) error {
	lease, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	return fn(queue.New[domain.Todo](lease, s.key, nil).WithDeleteMode(s.DeleteMode()))
}

// List returns the todos passing filter, in list order
func (s *TodoService) List(ctx context.Context, filter domain.Filter) ([]domain.Todo, error) {
	var todos []domain.Todo
	err := s.withQueue(ctx, func(q *queue.Queue[domain.Todo]) error {
		all, err := q.All(ctx)
		if err != nil {
			return err
		}
		todos = make([]domain.Todo, 0, len(all))
		for _, t := range all {
			if filter.Fit(t) {
				todos = append(todos, t)
			}
		}
		return nil
	})
	return todos, err
}

// Create appends a todo and returns the new list length
func (s *TodoService) Create(ctx context.Context, todo domain.Todo) (int64, error) {
	var n int64
	err := s.withQueue(ctx, func(q *queue.Queue[domain.Todo]) error {
		var err error
		n, err = q.Push(ctx, todo)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.publish(EventTodoCreated, n-1, todo)
	return n, nil
}

// Update replaces the todo at index
func (s *TodoService) Update(ctx context.Context, index int64, todo domain.Todo) error {
	if index < 0 {
		return ErrInvalidIndex
	}
	err := s.withQueue(ctx, func(q *queue.Queue[domain.Todo]) error {
		_, err := q.Replace(ctx, index, todo)
		return err
	})
	if err != nil {
		return err
	}

	s.publish(EventTodoUpdated, index, todo)
	return nil
}

// Toggle flips the completed flag of the todo at index and returns the result
func (s *TodoService) Toggle(ctx context.Context, index int64) (domain.Todo, error) {
	if index < 0 {
		return domain.Todo{}, ErrInvalidIndex
	}
	var toggled domain.Todo
	err := s.withQueue(ctx, func(q *queue.Queue[domain.Todo]) error {
		current, err := q.Get(ctx, index)
		if err != nil {
			return err
		}
		toggled = current.Toggled()
		_, err = q.Replace(ctx, index, toggled)
		return err
	})
	if err != nil {
		return domain.Todo{}, err
	}

	s.publish(EventTodoUpdated, index, toggled)
	return toggled, nil
}

// Delete removes the todo at index and returns it
func (s *TodoService) Delete(ctx context.Context, index int64) (domain.Todo, error) {
	if index < 0 {
		return domain.Todo{}, ErrInvalidIndex
	}
	var removed domain.Todo
	err := s.withQueue(ctx, func(q *queue.Queue[domain.Todo]) error {
		var err error
		removed, err = q.Delete(ctx, index)
		return err
	})
	if err != nil {
		return domain.Todo{}, err
	}

	s.publish(EventTodoDeleted, index, removed)
	return removed, nil
}

// ClearCompleted deletes every completed todo and returns how many were
// removed. Deletion walks from the tail so earlier positions stay valid.
func (s *TodoService) ClearCompleted(ctx context.Context) (int, error) {
	removed := 0
	err := s.withQueue(ctx, func(q *queue.Queue[domain.Todo]) error {
		entries, err := q.Entries(ctx)
		if err != nil {
			return err
		}
		for i := len(entries) - 1; i >= 0; i-- {
			if !entries[i].Record.Completed {
				continue
			}
			if _, err := q.Delete(ctx, entries[i].Index); err != nil {
				return fmt.Errorf("clear completed at %d: %w", entries[i].Index, err)
			}
			removed++
		}
		return nil
	})
	if removed > 0 {
		s.eventBus.Publish(Event{
			Type:    EventTodosCleared,
			Payload: map[string]int{"removed": removed},
		})
	}
	return removed, err
}

// Stats reports pool usage
func (s *TodoService) Stats() pool.Stats {
	return s.pool.Stats()
}

// Ping checks the backend is reachable
func (s *TodoService) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *TodoService) publish(eventType EventType, index int64, todo domain.Todo) {
	s.eventBus.Publish(Event{
		Type: eventType,
		Payload: TodoPayload{
			Index:       index,
			Description: todo.Description,
			Completed:   todo.Completed,
		},
	})
}
