// Package persistence implements canvas state storage for both backends.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tasklens/tasklens/internal/canvas/domain"
	"github.com/tasklens/tasklens/internal/shared/infrastructure/database"
	sharedpersistence "github.com/tasklens/tasklens/internal/shared/infrastructure/persistence"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
)

// SQLiteStateRepository persists canvas state in SQLite.
type SQLiteStateRepository struct {
	db *sql.DB
}

// NewSQLiteStateRepository creates a SQLite-backed canvas state repository.
func NewSQLiteStateRepository(db *sql.DB) *SQLiteStateRepository {
	return &SQLiteStateRepository{db: db}
}

// Get returns the state for a scope or domain.ErrCanvasNotFound.
func (r *SQLiteStateRepository) Get(ctx context.Context, scope todo.Scope) (*domain.CanvasState, error) {
	exec := sharedpersistence.SQLiteDB(ctx, r.db)

	var (
		canvasID, contentHash, lastSyncedAt string
	)
	err := exec.QueryRowContext(ctx, `
		SELECT canvas_id, content_hash, last_synced_at
		FROM canvas_states
		WHERE scope_kind = ? AND scope_id = ?`,
		string(scope.Kind), scope.ID,
	).Scan(&canvasID, &contentHash, &lastSyncedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrCanvasNotFound
		}
		return nil, fmt.Errorf("failed to load canvas state: %w", err)
	}

	syncedAt, _ := time.Parse(time.RFC3339Nano, lastSyncedAt)
	return &domain.CanvasState{
		Scope:        scope,
		CanvasID:     canvasID,
		ContentHash:  contentHash,
		LastSyncedAt: syncedAt,
	}, nil
}

// Save upserts the state for a scope.
func (r *SQLiteStateRepository) Save(ctx context.Context, state *domain.CanvasState) error {
	exec := sharedpersistence.SQLiteDB(ctx, r.db)

	_, err := exec.ExecContext(ctx, `
		INSERT INTO canvas_states (scope_kind, scope_id, canvas_id, content_hash, last_synced_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (scope_kind, scope_id) DO UPDATE SET
			canvas_id = excluded.canvas_id,
			content_hash = excluded.content_hash,
			last_synced_at = excluded.last_synced_at`,
		string(state.Scope.Kind),
		state.Scope.ID,
		state.CanvasID,
		state.ContentHash,
		state.LastSyncedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save canvas state: %w", err)
	}
	return nil
}

// Delete forgets the state for a scope.
func (r *SQLiteStateRepository) Delete(ctx context.Context, scope todo.Scope) error {
	exec := sharedpersistence.SQLiteDB(ctx, r.db)

	_, err := exec.ExecContext(ctx, `
		DELETE FROM canvas_states WHERE scope_kind = ? AND scope_id = ?`,
		string(scope.Kind), scope.ID)
	if err != nil {
		return fmt.Errorf("failed to delete canvas state: %w", err)
	}
	return nil
}
