package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tasklens/tasklens/internal/shared/application"
	"github.com/tasklens/tasklens/internal/shared/infrastructure/eventbus"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
)

// CompleteTodoCommand marks a todo done.
type CompleteTodoCommand struct {
	ID uuid.UUID
}

// CompleteTodoHandler handles completion.
type CompleteTodoHandler struct {
	repo      todo.Repository
	uow       application.UnitOfWork
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewCompleteTodoHandler creates the handler.
func NewCompleteTodoHandler(repo todo.Repository, uow application.UnitOfWork, publisher eventbus.Publisher, logger *slog.Logger) *CompleteTodoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompleteTodoHandler{repo: repo, uow: uow, publisher: publisher, logger: logger}
}

// Handle completes the todo.
func (h *CompleteTodoHandler) Handle(ctx context.Context, cmd CompleteTodoCommand) error {
	var scope todo.Scope

	err := application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		t, err := h.repo.FindByID(txCtx, cmd.ID)
		if err != nil {
			return err
		}
		if err := t.Complete(time.Now().UTC()); err != nil {
			return err
		}
		scope = t.Scope()
		return h.repo.Save(txCtx, t)
	})
	if err != nil {
		return err
	}

	publishTodosChanged(ctx, h.publisher, scope, h.logger)
	return nil
}
