// Package commands contains the write-side use cases of the todos context.
package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tasklens/tasklens/internal/shared/infrastructure/eventbus"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
)

// TodosChangedPayload is the payload of a todos.changed event.
type TodosChangedPayload struct {
	ScopeKey string `json:"scope_key"`
}

// publishTodosChanged notifies listeners that a scope's todo set changed.
// Publish failures are logged, never propagated: the write already
// committed and canvas sync will catch up on the next change.
func publishTodosChanged(ctx context.Context, publisher eventbus.Publisher, scope todo.Scope, logger *slog.Logger) {
	if publisher == nil {
		return
	}

	payload, err := json.Marshal(TodosChangedPayload{ScopeKey: scope.Key()})
	if err != nil {
		logger.Error("failed to marshal todos.changed payload", "error", err)
		return
	}

	event := eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   uuid.New(),
		AggregateType: "todo_set",
		RoutingKey:    todo.TodosChangedKey,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}

	body, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to marshal todos.changed event", "error", err)
		return
	}

	if err := publisher.Publish(ctx, todo.TodosChangedKey, body); err != nil {
		logger.Error("failed to publish todos.changed",
			"scope", scope.Key(),
			"error", err,
		)
	}
}
