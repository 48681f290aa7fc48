package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasklens/tasklens/internal/shared/infrastructure/database"
	sharedpersistence "github.com/tasklens/tasklens/internal/shared/infrastructure/persistence"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
)

// PostgresTodoRepository persists todos in PostgreSQL.
type PostgresTodoRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTodoRepository creates a Postgres-backed todo repository.
func NewPostgresTodoRepository(pool *pgxpool.Pool) *PostgresTodoRepository {
	return &PostgresTodoRepository{pool: pool}
}

// Save inserts a new todo or updates an existing one with an optimistic
// version check.
func (r *PostgresTodoRepository) Save(ctx context.Context, t *todo.Todo) error {
	exec := sharedpersistence.Executor(ctx, r.pool)

	refs, err := json.Marshal(t.SourceRefs())
	if err != nil {
		return fmt.Errorf("failed to encode source refs: %w", err)
	}

	if t.Version() == 0 {
		_, err := exec.Exec(ctx, `
			INSERT INTO todos (`+todoColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 1)`,
			t.ID(),
			string(t.Scope().Kind),
			t.Scope().ID,
			t.Title(),
			t.TaskType().String(),
			t.Tier().String(),
			t.TierPinned(),
			t.Status().String(),
			t.Confidence(),
			t.DueAt(),
			pgNullString(t.AssigneeID()),
			pgNullString(t.AssigneeName()),
			refs,
			t.CompletedAt(),
			t.CreatedAt().UTC(),
			t.UpdatedAt().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert todo: %w", err)
		}
		t.IncrementVersion()
		return nil
	}

	tag, err := exec.Exec(ctx, `
		UPDATE todos
		SET title = $1, task_type = $2, tier = $3, tier_pinned = $4, status = $5,
		    confidence = $6, due_at = $7, assignee_id = $8, assignee_name = $9,
		    source_refs = $10, completed_at = $11, updated_at = $12, version = version + 1
		WHERE id = $13 AND version = $14`,
		t.Title(),
		t.TaskType().String(),
		t.Tier().String(),
		t.TierPinned(),
		t.Status().String(),
		t.Confidence(),
		t.DueAt(),
		pgNullString(t.AssigneeID()),
		pgNullString(t.AssigneeName()),
		refs,
		t.CompletedAt(),
		t.UpdatedAt().UTC(),
		t.ID(),
		t.Version(),
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return todo.ErrOptimisticLock
	}

	t.IncrementVersion()
	return nil
}

// FindByID returns one todo or todo.ErrTodoNotFound.
func (r *PostgresTodoRepository) FindByID(ctx context.Context, id uuid.UUID) (*todo.Todo, error) {
	exec := sharedpersistence.Executor(ctx, r.pool)

	row := exec.QueryRow(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = $1`, id)

	t, err := scanPostgresTodo(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, todo.ErrTodoNotFound
		}
		return nil, err
	}
	return t, nil
}

// FindByScope returns all todos in a scope ordered by creation time.
func (r *PostgresTodoRepository) FindByScope(ctx context.Context, scope todo.Scope) ([]*todo.Todo, error) {
	exec := sharedpersistence.Executor(ctx, r.pool)

	rows, err := exec.Query(ctx,
		`SELECT `+todoColumns+` FROM todos
		 WHERE scope_kind = $1 AND scope_id = $2
		 ORDER BY created_at, id`,
		string(scope.Kind), scope.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	var todos []*todo.Todo
	for rows.Next() {
		t, err := scanPostgresTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// Delete removes a todo. Deleting a missing todo returns ErrTodoNotFound.
func (r *PostgresTodoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := sharedpersistence.Executor(ctx, r.pool)

	tag, err := exec.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return todo.ErrTodoNotFound
	}
	return nil
}

func scanPostgresTodo(row pgx.Row) (*todo.Todo, error) {
	var (
		id                                           uuid.UUID
		scopeKind, scopeID, title, taskType          string
		tier, status                                 string
		tierPinned                                   bool
		confidence                                   float64
		dueAt, completedAt                           *time.Time
		assigneeID, assigneeName                     *string
		refsJSON                                     []byte
		createdAt, updatedAt                         time.Time
		version                                      int
	)

	err := row.Scan(&id, &scopeKind, &scopeID, &title, &taskType, &tier,
		&tierPinned, &status, &confidence, &dueAt, &assigneeID, &assigneeName,
		&refsJSON, &completedAt, &createdAt, &updatedAt, &version)
	if err != nil {
		return nil, err
	}

	return rehydrateTodo(todoRow{
		id:           id.String(),
		scopeKind:    scopeKind,
		scopeID:      scopeID,
		title:        title,
		taskType:     taskType,
		tier:         tier,
		tierPinned:   tierPinned,
		status:       status,
		confidence:   confidence,
		dueAt:        dueAt,
		assigneeID:   derefString(assigneeID),
		assigneeName: derefString(assigneeName),
		refsJSON:     string(refsJSON),
		completedAt:  completedAt,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		version:      version,
	})
}

func pgNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
