package todo

import (
	"time"

	"github.com/google/uuid"

	"github.com/tasklens/tasklens/internal/shared/domain"
	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

// Routing keys for todo events.
const (
	TodoCreatedKey   = "todos.todo.created"
	TodoUpdatedKey   = "todos.todo.updated"
	TodoCompletedKey = "todos.todo.completed"
	TodoDeletedKey   = "todos.todo.deleted"

	// TodosChangedKey signals that a scope's todo set changed and its
	// canvas should be re-synchronized.
	TodosChangedKey = "todos.changed"
)

const aggregateType = "todo"

// TodoCreated is raised when a new todo enters a scope's set.
type TodoCreated struct {
	domain.BaseEvent
	ScopeKey string `json:"scope_key"`
	Title    string `json:"title"`
	Tier     string `json:"tier"`
}

// NewTodoCreated creates a TodoCreated event.
func NewTodoCreated(id uuid.UUID, scope Scope, title string, tier value_objects.Tier) *TodoCreated {
	return &TodoCreated{
		BaseEvent: domain.NewBaseEvent(id, aggregateType, TodoCreatedKey),
		ScopeKey:  scope.Key(),
		Title:     title,
		Tier:      tier.String(),
	}
}

// TodoUpdated is raised when a todo's content changes.
type TodoUpdated struct {
	domain.BaseEvent
	ScopeKey string `json:"scope_key"`
}

// NewTodoUpdated creates a TodoUpdated event.
func NewTodoUpdated(id uuid.UUID, scope Scope) *TodoUpdated {
	return &TodoUpdated{
		BaseEvent: domain.NewBaseEvent(id, aggregateType, TodoUpdatedKey),
		ScopeKey:  scope.Key(),
	}
}

// TodoCompleted is raised when a todo is marked done.
type TodoCompleted struct {
	domain.BaseEvent
	ScopeKey    string    `json:"scope_key"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewTodoCompleted creates a TodoCompleted event.
func NewTodoCompleted(id uuid.UUID, scope Scope, completedAt time.Time) *TodoCompleted {
	return &TodoCompleted{
		BaseEvent:   domain.NewBaseEvent(id, aggregateType, TodoCompletedKey),
		ScopeKey:    scope.Key(),
		CompletedAt: completedAt,
	}
}

// TodoDeleted is raised when a todo is removed from its set.
type TodoDeleted struct {
	domain.BaseEvent
	ScopeKey string `json:"scope_key"`
}

// NewTodoDeleted creates a TodoDeleted event.
func NewTodoDeleted(id uuid.UUID, scope Scope) *TodoDeleted {
	return &TodoDeleted{
		BaseEvent: domain.NewBaseEvent(id, aggregateType, TodoDeletedKey),
		ScopeKey:  scope.Key(),
	}
}
