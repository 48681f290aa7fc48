package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasklens/tasklens/internal/shared/infrastructure/eventbus"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/pkg/observability"
)

// AutoSyncConsumer re-synchronizes a scope's canvas whenever its todo set
// changes. It subscribes to todos.changed on the event bus, so it works the
// same whether events arrive in-process or through RabbitMQ.
type AutoSyncConsumer struct {
	repo     todo.Repository
	renderer *Renderer
	sync     *Synchronizer
	logger   *slog.Logger
}

// NewAutoSyncConsumer creates the consumer.
func NewAutoSyncConsumer(repo todo.Repository, renderer *Renderer, sync *Synchronizer, logger *slog.Logger) *AutoSyncConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoSyncConsumer{
		repo:     repo,
		renderer: renderer,
		sync:     sync,
		logger:   logger,
	}
}

// EventTypes returns the routing keys this consumer handles.
func (c *AutoSyncConsumer) EventTypes() []string {
	return []string{todo.TodosChangedKey}
}

type todosChangedPayload struct {
	ScopeKey string `json:"scope_key"`
}

// Handle renders and synchronizes the changed scope.
func (c *AutoSyncConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload todosChangedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("invalid todos.changed payload: %w", err)
	}

	scope, err := todo.ParseScopeKey(payload.ScopeKey)
	if err != nil {
		return err
	}

	todos, err := c.repo.FindByScope(ctx, scope)
	if err != nil {
		return fmt.Errorf("failed to load todo set: %w", err)
	}

	doc := c.renderer.Render(scope, todos, time.Now().UTC())
	result, err := c.sync.Synchronize(ctx, scope, doc)
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "auto-sync completed",
		observability.ScopeKey, scope.Key(),
		"op", string(result.Op),
		"canvas_id", result.CanvasID,
	)
	return nil
}
