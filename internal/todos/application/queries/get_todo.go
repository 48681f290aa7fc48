package queries

import (
	"context"

	"github.com/google/uuid"

	"github.com/tasklens/tasklens/internal/todos/domain/todo"
)

// GetTodoQuery fetches one todo by ID.
type GetTodoQuery struct {
	ID uuid.UUID
}

// GetTodoHandler handles single-todo lookups.
type GetTodoHandler struct {
	repo todo.Repository
}

// NewGetTodoHandler creates the handler.
func NewGetTodoHandler(repo todo.Repository) *GetTodoHandler {
	return &GetTodoHandler{repo: repo}
}

// Handle returns the todo or todo.ErrTodoNotFound.
func (h *GetTodoHandler) Handle(ctx context.Context, q GetTodoQuery) (*todo.Todo, error) {
	return h.repo.FindByID(ctx, q.ID)
}
