package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tasklens/tasklens/internal/todos/domain/todo"
)

var (
	// ErrCanvasNotFound indicates no canvas is tracked for the scope.
	ErrCanvasNotFound = errors.New("canvas not found")

	// ErrSyncFailed marks remote canvas failures. Use errors.Is to detect
	// it; the wrapped cause stays reachable via errors.Unwrap.
	ErrSyncFailed = errors.New("canvas sync failed")
)

// SyncError wraps a remote canvas failure with the operation that failed.
type SyncError struct {
	Op    string
	Cause error
}

// NewSyncError creates a SyncError.
func NewSyncError(op string, cause error) *SyncError {
	return &SyncError{Op: op, Cause: cause}
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("canvas sync failed: %s: %v", e.Op, e.Cause)
}

// Is makes errors.Is(err, ErrSyncFailed) match.
func (e *SyncError) Is(target error) bool {
	return target == ErrSyncFailed
}

// Unwrap exposes the cause.
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// CanvasState tracks the remote canvas bound to a scope and the content
// hash of the last successful sync.
type CanvasState struct {
	Scope        todo.Scope
	CanvasID     string
	ContentHash  string
	LastSyncedAt time.Time
}

// StateRepository persists canvas state, one row per scope.
type StateRepository interface {
	Get(ctx context.Context, scope todo.Scope) (*CanvasState, error)
	Save(ctx context.Context, state *CanvasState) error
	Delete(ctx context.Context, scope todo.Scope) error
}

// RemoteCanvas is the external canvas store.
type RemoteCanvas interface {
	// Create makes a new canvas for the scope and returns its ID.
	Create(ctx context.Context, scope todo.Scope, title, body string) (string, error)

	// Replace swaps the canvas's entire content for the new body.
	Replace(ctx context.Context, canvasID, body string) error

	// Delete removes the canvas.
	Delete(ctx context.Context, canvasID string) error
}
