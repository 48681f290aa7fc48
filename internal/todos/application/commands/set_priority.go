package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tasklens/tasklens/internal/shared/application"
	"github.com/tasklens/tasklens/internal/shared/infrastructure/eventbus"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

// SetPriorityCommand pins a todo's tier manually. Pinned tiers are never
// changed by automatic merges.
type SetPriorityCommand struct {
	ID   uuid.UUID
	Tier string
}

// SetPriorityHandler handles manual prioritization.
type SetPriorityHandler struct {
	repo      todo.Repository
	uow       application.UnitOfWork
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewSetPriorityHandler creates the handler.
func NewSetPriorityHandler(repo todo.Repository, uow application.UnitOfWork, publisher eventbus.Publisher, logger *slog.Logger) *SetPriorityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SetPriorityHandler{repo: repo, uow: uow, publisher: publisher, logger: logger}
}

// Handle pins the tier.
func (h *SetPriorityHandler) Handle(ctx context.Context, cmd SetPriorityCommand) error {
	tier, err := value_objects.ParseTier(cmd.Tier)
	if err != nil {
		return err
	}

	var scope todo.Scope
	err = application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		t, err := h.repo.FindByID(txCtx, cmd.ID)
		if err != nil {
			return err
		}
		if err := t.PinTier(tier); err != nil {
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
