package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tasklens/tasklens/internal/shared/application"
	"github.com/tasklens/tasklens/internal/shared/infrastructure/eventbus"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

// AddTodoCommand creates a todo by hand, outside extraction.
type AddTodoCommand struct {
	Scope        todo.Scope
	Title        string
	TaskType     string
	Tier         string
	DueAt        *time.Time
	AssigneeID   string
	AssigneeName string
}

// AddTodoResult returns the new todo's identity.
type AddTodoResult struct {
	ID uuid.UUID
}

// AddTodoHandler handles manual todo creation.
type AddTodoHandler struct {
	repo      todo.Repository
	uow       application.UnitOfWork
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewAddTodoHandler creates the handler.
func NewAddTodoHandler(repo todo.Repository, uow application.UnitOfWork, publisher eventbus.Publisher, logger *slog.Logger) *AddTodoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddTodoHandler{repo: repo, uow: uow, publisher: publisher, logger: logger}
}

// Handle creates and persists the todo.
func (h *AddTodoHandler) Handle(ctx context.Context, cmd AddTodoCommand) (*AddTodoResult, error) {
	t, err := todo.NewTodo(cmd.Scope, cmd.Title)
	if err != nil {
		return nil, err
	}

	if cmd.TaskType != "" {
		t.SetTaskType(value_objects.ParseTaskType(cmd.TaskType))
	}
	if cmd.Tier != "" {
		tier, err := value_objects.ParseTier(cmd.Tier)
		if err != nil {
			return nil, err
		}
		// Manually chosen tiers are pinned against automatic changes
		if err := t.PinTier(tier); err != nil {
			return nil, err
		}
	}
	if cmd.DueAt != nil {
		t.SetDueAt(cmd.DueAt)
	}
	if cmd.AssigneeID != "" {
		t.Assign(cmd.AssigneeID, cmd.AssigneeName)
	}

	err = application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		return h.repo.Save(txCtx, t)
	})
	if err != nil {
		return nil, err
	}

	publishTodosChanged(ctx, h.publisher, cmd.Scope, h.logger)

	return &AddTodoResult{ID: t.ID()}, nil
}
