package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tasklens/tasklens/internal/canvas/domain"
	"github.com/tasklens/tasklens/internal/locks"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/pkg/observability"
)

// BodyRenderer turns a document into the canvas body format.
type BodyRenderer interface {
	RenderBody(doc domain.Document) string
}

// SyncOp describes what a synchronization did.
type SyncOp string

const (
	SyncCreated  SyncOp = "created"
	SyncReplaced SyncOp = "replaced"
	SyncSkipped  SyncOp = "skipped"
)

// SyncResult reports the outcome of one synchronization.
type SyncResult struct {
	Op          SyncOp
	CanvasID    string
	ContentHash string
}

// Synchronizer reconciles a scope's rendered document with its remote
// canvas. Concurrent syncs for the same scope collapse into one remote
// operation; different scopes proceed independently.
type Synchronizer struct {
	remote domain.RemoteCanvas
	states domain.StateRepository
	body   BodyRenderer
	locker locks.ScopeLocker
	group  singleflight.Group
	logger *slog.Logger
}

// NewSynchronizer creates a synchronizer.
func NewSynchronizer(
	remote domain.RemoteCanvas,
	states domain.StateRepository,
	body BodyRenderer,
	locker locks.ScopeLocker,
	logger *slog.Logger,
) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		remote: remote,
		states: states,
		body:   body,
		locker: locker,
		logger: logger,
	}
}

// Synchronize pushes the document to the scope's canvas. When the rendered
// body hashes to the last synced content, no remote call is made. A remote
// failure leaves the stored state untouched so the next sync retries.
func (s *Synchronizer) Synchronize(ctx context.Context, scope todo.Scope, doc domain.Document) (*SyncResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	v, err, shared := s.group.Do(scope.Key(), func() (any, error) {
		return s.sync(ctx, scope, doc)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "sync collapsed into in-flight call",
			observability.ScopeKey, scope.Key(),
		)
	}
	return v.(*SyncResult), nil
}

func (s *Synchronizer) sync(ctx context.Context, scope todo.Scope, doc domain.Document) (*SyncResult, error) {
	release, err := s.locker.Lock(ctx, "canvas:"+scope.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to lock scope %s: %w", scope.Key(), err)
	}
	defer release()

	body := s.body.RenderBody(doc)
	hash := contentHash(body)

	state, err := s.states.Get(ctx, scope)
	switch {
	case errors.Is(err, domain.ErrCanvasNotFound):
		return s.create(ctx, scope, doc.Title, body, hash)
	case err != nil:
		return nil, fmt.Errorf("failed to load canvas state: %w", err)
	}

	if state.ContentHash == hash {
		s.logger.DebugContext(ctx, "canvas content unchanged, skipping",
			observability.ScopeKey, scope.Key(),
			"canvas_id", state.CanvasID,
		)
		return &SyncResult{Op: SyncSkipped, CanvasID: state.CanvasID, ContentHash: hash}, nil
	}

	if err := s.remote.Replace(ctx, state.CanvasID, body); err != nil {
		return nil, domain.NewSyncError("replace", err)
	}

	state.ContentHash = hash
	state.LastSyncedAt = time.Now().UTC()
	if err := s.states.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save canvas state: %w", err)
	}

	s.logger.InfoContext(ctx, "canvas replaced",
		observability.ScopeKey, scope.Key(),
		"canvas_id", state.CanvasID,
	)
	return &SyncResult{Op: SyncReplaced, CanvasID: state.CanvasID, ContentHash: hash}, nil
}

func (s *Synchronizer) create(ctx context.Context, scope todo.Scope, title, body, hash string) (*SyncResult, error) {
	canvasID, err := s.remote.Create(ctx, scope, title, body)
	if err != nil {
		return nil, domain.NewSyncError("create", err)
	}

	state := &domain.CanvasState{
		Scope:        scope,
		CanvasID:     canvasID,
		ContentHash:  hash,
		LastSyncedAt: time.Now().UTC(),
	}
	if err := s.states.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save canvas state: %w", err)
	}

	s.logger.InfoContext(ctx, "canvas created",
		observability.ScopeKey, scope.Key(),
		"canvas_id", canvasID,
	)
	return &SyncResult{Op: SyncCreated, CanvasID: canvasID, ContentHash: hash}, nil
}

// Delete removes the scope's canvas and forgets its state. Returns
// domain.ErrCanvasNotFound when no canvas is tracked.
func (s *Synchronizer) Delete(ctx context.Context, scope todo.Scope) error {
	release, err := s.locker.Lock(ctx, "canvas:"+scope.Key())
	if err != nil {
		return fmt.Errorf("failed to lock scope %s: %w", scope.Key(), err)
	}
	defer release()

	state, err := s.states.Get(ctx, scope)
	if err != nil {
		return err
	}

	if err := s.remote.Delete(ctx, state.CanvasID); err != nil {
		return domain.NewSyncError("delete", err)
	}
	if err := s.states.Delete(ctx, scope); err != nil {
		return fmt.Errorf("failed to delete canvas state: %w", err)
	}

	s.logger.InfoContext(ctx, "canvas deleted",
		observability.ScopeKey, scope.Key(),
		"canvas_id", state.CanvasID,
	)
	return nil
}

// Info returns the tracked canvas state for a scope.
func (s *Synchronizer) Info(ctx context.Context, scope todo.Scope) (*domain.CanvasState, error) {
	return s.states.Get(ctx, scope)
}

func contentHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}
