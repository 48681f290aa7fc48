// Package queries contains the read-side use cases of the todos context.
package queries

import (
	"context"
	"sort"

	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

// ListTodosQuery lists a scope's todos with optional filters.
type ListTodosQuery struct {
	Scope      todo.Scope
	Status     *todo.Status
	Tier       *value_objects.Tier
	AssigneeID string
}

// ListTodosHandler handles todo listing.
type ListTodosHandler struct {
	repo todo.Repository
}

// NewListTodosHandler creates the handler.
func NewListTodosHandler(repo todo.Repository) *ListTodosHandler {
	return &ListTodosHandler{repo: repo}
}

// Handle returns matching todos ordered by tier (most urgent first), then
// creation time.
func (h *ListTodosHandler) Handle(ctx context.Context, q ListTodosQuery) ([]*todo.Todo, error) {
	if err := q.Scope.Validate(); err != nil {
		return nil, err
	}

	todos, err := h.repo.FindByScope(ctx, q.Scope)
	if err != nil {
		return nil, err
	}

	filtered := make([]*todo.Todo, 0, len(todos))
	for _, t := range todos {
		if q.Status != nil && t.Status() != *q.Status {
			continue
		}
		if q.Tier != nil && t.Tier() != *q.Tier {
			continue
		}
		if q.AssigneeID != "" && t.AssigneeID() != q.AssigneeID {
			continue
		}
		filtered = append(filtered, t)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Tier() != filtered[j].Tier() {
			return filtered[i].Tier() > filtered[j].Tier()
		}
		return filtered[i].CreatedAt().Before(filtered[j].CreatedAt())
	})

	return filtered, nil
}
