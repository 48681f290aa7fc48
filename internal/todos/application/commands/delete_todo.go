package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tasklens/tasklens/internal/shared/application"
	"github.com/tasklens/tasklens/internal/shared/infrastructure/eventbus"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
)

// DeleteTodoCommand removes a todo from its set.
type DeleteTodoCommand struct {
	ID uuid.UUID
}

// DeleteTodoHandler handles deletion.
type DeleteTodoHandler struct {
	repo      todo.Repository
	uow       application.UnitOfWork
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewDeleteTodoHandler creates the handler.
func NewDeleteTodoHandler(repo todo.Repository, uow application.UnitOfWork, publisher eventbus.Publisher, logger *slog.Logger) *DeleteTodoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeleteTodoHandler{repo: repo, uow: uow, publisher: publisher, logger: logger}
}

// Handle deletes the todo.
func (h *DeleteTodoHandler) Handle(ctx context.Context, cmd DeleteTodoCommand) error {
	var scope todo.Scope

	err := application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		t, err := h.repo.FindByID(txCtx, cmd.ID)
		if err != nil {
			return err
		}
		scope = t.Scope()
		return h.repo.Delete(txCtx, cmd.ID)
	})
	if err != nil {
		return err
	}

	publishTodosChanged(ctx, h.publisher, scope, h.logger)
	return nil
}
