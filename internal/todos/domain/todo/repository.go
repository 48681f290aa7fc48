package todo

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrTodoNotFound indicates the requested todo does not exist.
	ErrTodoNotFound = errors.New("todo not found")

	// ErrOptimisticLock indicates a concurrent writer updated the todo first.
	ErrOptimisticLock = errors.New("todo was modified concurrently")

	// ErrMergeConflict indicates a merge could not be applied atomically and
	// the whole batch was rolled back.
	ErrMergeConflict = errors.New("todo merge conflict")
)

// Repository persists todos.
type Repository interface {
	Save(ctx context.Context, t *Todo) error
	FindByID(ctx context.Context, id uuid.UUID) (*Todo, error)
	FindByScope(ctx context.Context, scope Scope) ([]*Todo, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
