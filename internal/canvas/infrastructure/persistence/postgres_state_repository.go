package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasklens/tasklens/internal/canvas/domain"
	"github.com/tasklens/tasklens/internal/shared/infrastructure/database"
	sharedpersistence "github.com/tasklens/tasklens/internal/shared/infrastructure/persistence"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
)

// PostgresStateRepository persists canvas state in PostgreSQL.
type PostgresStateRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresStateRepository creates a Postgres-backed canvas state repository.
func NewPostgresStateRepository(pool *pgxpool.Pool) *PostgresStateRepository {
	return &PostgresStateRepository{pool: pool}
}

// Get returns the state for a scope or domain.ErrCanvasNotFound.
func (r *PostgresStateRepository) Get(ctx context.Context, scope todo.Scope) (*domain.CanvasState, error) {
	exec := sharedpersistence.Executor(ctx, r.pool)

	var (
		canvasID, contentHash string
		lastSyncedAt          time.Time
	)
	err := exec.QueryRow(ctx, `
		SELECT canvas_id, content_hash, last_synced_at
		FROM canvas_states
		WHERE scope_kind = $1 AND scope_id = $2`,
		string(scope.Kind), scope.ID,
	).Scan(&canvasID, &contentHash, &lastSyncedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrCanvasNotFound
		}
		return nil, fmt.Errorf("failed to load canvas state: %w", err)
	}

	return &domain.CanvasState{
		Scope:        scope,
		CanvasID:     canvasID,
		ContentHash:  contentHash,
		LastSyncedAt: lastSyncedAt,
	}, nil
}

// Save upserts the state for a scope.
func (r *PostgresStateRepository) Save(ctx context.Context, state *domain.CanvasState) error {
	exec := sharedpersistence.Executor(ctx, r.pool)

	_, err := exec.Exec(ctx, `
		INSERT INTO canvas_states (scope_kind, scope_id, canvas_id, content_hash, last_synced_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (scope_kind, scope_id) DO UPDATE SET
			canvas_id = EXCLUDED.canvas_id,
			content_hash = EXCLUDED.content_hash,
			last_synced_at = EXCLUDED.last_synced_at`,
		string(state.Scope.Kind),
		state.Scope.ID,
		state.CanvasID,
		state.ContentHash,
		state.LastSyncedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save canvas state: %w", err)
	}
	return nil
}

// Delete forgets the state for a scope.
func (r *PostgresStateRepository) Delete(ctx context.Context, scope todo.Scope) error {
	exec := sharedpersistence.Executor(ctx, r.pool)

	_, err := exec.Exec(ctx, `
		DELETE FROM canvas_states WHERE scope_kind = $1 AND scope_id = $2`,
		string(scope.Kind), scope.ID)
	if err != nil {
		return fmt.Errorf("failed to delete canvas state: %w", err)
	}
	return nil
}
