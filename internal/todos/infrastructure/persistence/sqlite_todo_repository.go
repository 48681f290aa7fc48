// Package persistence implements the todos repository for both storage
// backends.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tasklens/tasklens/internal/shared/infrastructure/database"
	sharedpersistence "github.com/tasklens/tasklens/internal/shared/infrastructure/persistence"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

const todoColumns = `id, scope_kind, scope_id, title, task_type, tier, tier_pinned,
	status, confidence, due_at, assignee_id, assignee_name, source_refs,
	completed_at, created_at, updated_at, version`

// SQLiteTodoRepository persists todos in SQLite.
type SQLiteTodoRepository struct {
	db *sql.DB
}

// NewSQLiteTodoRepository creates a SQLite-backed todo repository.
func NewSQLiteTodoRepository(db *sql.DB) *SQLiteTodoRepository {
	return &SQLiteTodoRepository{db: db}
}

// Save inserts a new todo or updates an existing one with an optimistic
// version check.
func (r *SQLiteTodoRepository) Save(ctx context.Context, t *todo.Todo) error {
	exec := sharedpersistence.SQLiteDB(ctx, r.db)

	refs, err := json.Marshal(t.SourceRefs())
	if err != nil {
		return fmt.Errorf("failed to encode source refs: %w", err)
	}

	if t.Version() == 0 {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO todos (`+todoColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
			t.ID().String(),
			string(t.Scope().Kind),
			t.Scope().ID,
			t.Title(),
			t.TaskType().String(),
			t.Tier().String(),
			boolToInt(t.TierPinned()),
			t.Status().String(),
			t.Confidence(),
			nullTimeString(t.DueAt()),
			nullString(t.AssigneeID()),
			nullString(t.AssigneeName()),
			string(refs),
			nullTimeString(t.CompletedAt()),
			t.CreatedAt().UTC().Format(time.RFC3339Nano),
			t.UpdatedAt().UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert todo: %w", err)
		}
		t.IncrementVersion()
		return nil
	}

	result, err := exec.ExecContext(ctx, `
		UPDATE todos
		SET title = ?, task_type = ?, tier = ?, tier_pinned = ?, status = ?,
		    confidence = ?, due_at = ?, assignee_id = ?, assignee_name = ?,
		    source_refs = ?, completed_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		t.Title(),
		t.TaskType().String(),
		t.Tier().String(),
		boolToInt(t.TierPinned()),
		t.Status().String(),
		t.Confidence(),
		nullTimeString(t.DueAt()),
		nullString(t.AssigneeID()),
		nullString(t.AssigneeName()),
		string(refs),
		nullTimeString(t.CompletedAt()),
		t.UpdatedAt().UTC().Format(time.RFC3339Nano),
		t.ID().String(),
		t.Version(),
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return todo.ErrOptimisticLock
	}

	t.IncrementVersion()
	return nil
}

// FindByID returns one todo or todo.ErrTodoNotFound.
func (r *SQLiteTodoRepository) FindByID(ctx context.Context, id uuid.UUID) (*todo.Todo, error) {
	exec := sharedpersistence.SQLiteDB(ctx, r.db)

	row := exec.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = ?`, id.String())

	t, err := scanSQLiteTodo(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, todo.ErrTodoNotFound
		}
		return nil, err
	}
	return t, nil
}

// FindByScope returns all todos in a scope ordered by creation time.
func (r *SQLiteTodoRepository) FindByScope(ctx context.Context, scope todo.Scope) ([]*todo.Todo, error) {
	exec := sharedpersistence.SQLiteDB(ctx, r.db)

	rows, err := exec.QueryContext(ctx,
		`SELECT `+todoColumns+` FROM todos
		 WHERE scope_kind = ? AND scope_id = ?
		 ORDER BY created_at, id`,
		string(scope.Kind), scope.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	var todos []*todo.Todo
	for rows.Next() {
		t, err := scanSQLiteTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// Delete removes a todo. Deleting a missing todo returns ErrTodoNotFound.
func (r *SQLiteTodoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := sharedpersistence.SQLiteDB(ctx, r.db)

	result, err := exec.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return todo.ErrTodoNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTodo(row rowScanner) (*todo.Todo, error) {
	var (
		idStr, scopeKind, scopeID, title, taskType, tier, status string
		tierPinned                                               int
		confidence                                               float64
		dueAt, assigneeID, assigneeName, completedAt             sql.NullString
		refsJSON, createdAt, updatedAt                           string
		version                                                  int
	)

	err := row.Scan(&idStr, &scopeKind, &scopeID, &title, &taskType, &tier,
		&tierPinned, &status, &confidence, &dueAt, &assigneeID, &assigneeName,
		&refsJSON, &completedAt, &createdAt, &updatedAt, &version)
	if err != nil {
		return nil, err
	}

	return rehydrateTodo(todoRow{
		id:           idStr,
		scopeKind:    scopeKind,
		scopeID:      scopeID,
		title:        title,
		taskType:     taskType,
		tier:         tier,
		tierPinned:   tierPinned != 0,
		status:       status,
		confidence:   confidence,
		dueAt:        parseNullTime(dueAt),
		assigneeID:   assigneeID.String,
		assigneeName: assigneeName.String,
		refsJSON:     refsJSON,
		completedAt:  parseNullTime(completedAt),
		createdAt:    parseTime(createdAt),
		updatedAt:    parseTime(updatedAt),
		version:      version,
	})
}

// todoRow is the backend-neutral scan target shared with the Postgres repo.
type todoRow struct {
	id           string
	scopeKind    string
	scopeID      string
	title        string
	taskType     string
	tier         string
	tierPinned   bool
	status       string
	confidence   float64
	dueAt        *time.Time
	assigneeID   string
	assigneeName string
	refsJSON     string
	completedAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
	version      int
}

func rehydrateTodo(row todoRow) (*todo.Todo, error) {
	id, err := uuid.Parse(row.id)
	if err != nil {
		return nil, fmt.Errorf("invalid todo id %q: %w", row.id, err)
	}

	tier, err := value_objects.ParseTier(row.tier)
	if err != nil {
		return nil, fmt.Errorf("invalid tier %q: %w", row.tier, err)
	}
	status, err := todo.ParseStatus(row.status)
	if err != nil {
		return nil, fmt.Errorf("invalid status %q: %w", row.status, err)
	}

	var refs []todo.SourceRef
	if row.refsJSON != "" {
		if err := json.Unmarshal([]byte(row.refsJSON), &refs); err != nil {
			return nil, fmt.Errorf("invalid source refs: %w", err)
		}
	}

	return todo.Rehydrate(
		id,
		todo.Scope{Kind: todo.ScopeKind(row.scopeKind), ID: row.scopeID},
		row.title,
		value_objects.ParseTaskType(row.taskType),
		tier,
		row.tierPinned,
		status,
		row.confidence,
		row.dueAt,
		row.assigneeID,
		row.assigneeName,
		refs,
		row.completedAt,
		row.createdAt,
		row.updatedAt,
		row.version,
	), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTimeString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}
