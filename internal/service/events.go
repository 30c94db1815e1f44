package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventTodoCreated  EventType = "todo_created"
	EventTodoUpdated  EventType = "todo_updated"
	EventTodoDeleted  EventType = "todo_deleted"
	EventTodosCleared EventType = "todos_cleared"
)

// Event represents a change to the todo list
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// TodoPayload describes the todo an event refers to
type TodoPayload struct {
	Index       int64  `json:"index"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers without blocking
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
