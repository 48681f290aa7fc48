package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	extraction "github.com/tasklens/tasklens/internal/extraction/domain"
	"github.com/tasklens/tasklens/internal/locks"
	"github.com/tasklens/tasklens/internal/todos/application/commands"
	"github.com/tasklens/tasklens/internal/todos/application/services"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
)

// memoryRepo keeps todos per scope with commit/rollback snapshots driven by
// the fake unit of work.
type memoryRepo struct {
	todos    map[uuid.UUID]*todo.Todo
	saveErr  error
	saveCnt  int
	failAt   int // fail the nth Save when > 0
	snapshot map[uuid.UUID]*todo.Todo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{todos: make(map[uuid.UUID]*todo.Todo)}
}

func (r *memoryRepo) Save(_ context.Context, t *todo.Todo) error {
	r.saveCnt++
	if r.failAt > 0 && r.saveCnt >= r.failAt {
		return errors.New("disk full")
	}
	if r.saveErr != nil {
		return r.saveErr
	}
	r.todos[t.ID()] = t
	return nil
}

func (r *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (*todo.Todo, error) {
	t, ok := r.todos[id]
	if !ok {
		return nil, todo.ErrTodoNotFound
	}
	return t, nil
}

func (r *memoryRepo) FindByScope(_ context.Context, scope todo.Scope) ([]*todo.Todo, error) {
	var out []*todo.Todo
	for _, t := range r.todos {
		if t.Scope() == scope {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.todos[id]; !ok {
		return todo.ErrTodoNotFound
	}
	delete(r.todos, id)
	return nil
}

// fakeUoW snapshots the repo on Begin and restores it on Rollback, so the
// all-or-nothing contract is observable in tests.
type fakeUoW struct {
	repo      *memoryRepo
	commits   int
	rollbacks int
}

func (u *fakeUoW) Begin(ctx context.Context) (context.Context, error) {
	snapshot := make(map[uuid.UUID]*todo.Todo, len(u.repo.todos))
	for id, t := range u.repo.todos {
		snapshot[id] = t
	}
	u.repo.snapshot = snapshot
	return ctx, nil
}

func (u *fakeUoW) Commit(context.Context) error {
	u.commits++
	u.repo.snapshot = nil
	return nil
}

func (u *fakeUoW) Rollback(context.Context) error {
	u.rollbacks++
	u.repo.todos = u.repo.snapshot
	return nil
}

type recordingPublisher struct {
	keys     []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.keys = append(p.keys, routingKey)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newHandler(repo *memoryRepo, publisher *recordingPublisher) *commands.ExtractAndMergeHandler {
	return commands.NewExtractAndMergeHandler(
		repo,
		&fakeUoW{repo: repo},
		services.NewMergeEngine(services.DefaultMergeConfig()),
		locks.NewKeyed(),
		publisher,
		nil,
	)
}

func candidates(titles ...string) []extraction.Candidate {
	out := make([]extraction.Candidate, 0, len(titles))
	for i, title := range titles {
		out = append(out, extraction.Candidate{
			Title:      title,
			Confidence: 0.9,
			Signal:     0.5,
			SourceID:   "C123",
			MessageRef: "1700000001.00010" + string(rune('0'+i)),
		})
	}
	return out
}

func TestExtractAndMerge_CreatesAndPersists(t *testing.T) {
	repo := newMemoryRepo()
	publisher := &recordingPublisher{}
	handler := newHandler(repo, publisher)
	scope := todo.NewChannelScope("C123")

	result, err := handler.Handle(context.Background(), commands.ExtractAndMergeCommand{
		Scope:      scope,
		Candidates: candidates("Fix the login bug", "Plan the offsite agenda"),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.Created)
	assert.Len(t, repo.todos, 2)
}

func TestExtractAndMerge_EmptyBatchTouchesNothing(t *testing.T) {
	repo := newMemoryRepo()
	publisher := &recordingPublisher{}
	handler := newHandler(repo, publisher)

	result, err := handler.Handle(context.Background(), commands.ExtractAndMergeCommand{
		Scope: todo.NewChannelScope("C123"),
	})

	require.NoError(t, err)
	assert.Zero(t, result.Summary.Total())
	assert.Zero(t, repo.saveCnt)
	assert.Empty(t, publisher.keys)
}

func TestExtractAndMerge_AllOrNothing(t *testing.T) {
	repo := newMemoryRepo()
	repo.failAt = 2
	publisher := &recordingPublisher{}
	handler := newHandler(repo, publisher)

	_, err := handler.Handle(context.Background(), commands.ExtractAndMergeCommand{
		Scope:      todo.NewChannelScope("C123"),
		Candidates: candidates("Fix the login bug", "Plan the offsite agenda"),
	})

	require.Error(t, err)
	assert.Empty(t, repo.todos, "a mid-batch failure rolls every change back")
	assert.Empty(t, publisher.keys, "no change event after a failed merge")
}

func TestExtractAndMerge_PublishesChangeEvent(t *testing.T) {
	repo := newMemoryRepo()
	publisher := &recordingPublisher{}
	handler := newHandler(repo, publisher)

	_, err := handler.Handle(context.Background(), commands.ExtractAndMergeCommand{
		Scope:      todo.NewChannelScope("C123"),
		Candidates: candidates("Fix the login bug"),
	})

	require.NoError(t, err)
	require.Len(t, publisher.keys, 1)
	assert.Equal(t, todo.TodosChangedKey, publisher.keys[0])
	assert.Contains(t, string(publisher.payloads[0]), "channel:C123")
}

func TestExtractAndMerge_NoEventWhenNothingChanged(t *testing.T) {
	repo := newMemoryRepo()
	publisher := &recordingPublisher{}
	handler := newHandler(repo, publisher)
	scope := todo.NewChannelScope("C123")
	batch := candidates("Fix the login bug")

	_, err := handler.Handle(context.Background(), commands.ExtractAndMergeCommand{Scope: scope, Candidates: batch})
	require.NoError(t, err)

	result, err := handler.Handle(context.Background(), commands.ExtractAndMergeCommand{Scope: scope, Candidates: batch})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Unchanged)
	assert.Len(t, publisher.keys, 1, "idempotent re-merge publishes nothing")
}

func TestExtractAndMerge_OptimisticLockBecomesMergeConflict(t *testing.T) {
	repo := newMemoryRepo()
	repo.saveErr = todo.ErrOptimisticLock
	handler := newHandler(repo, &recordingPublisher{})

	_, err := handler.Handle(context.Background(), commands.ExtractAndMergeCommand{
		Scope:      todo.NewChannelScope("C123"),
		Candidates: candidates("Fix the login bug"),
	})

	assert.ErrorIs(t, err, todo.ErrMergeConflict)
}

func TestExtractAndMerge_InvalidScope(t *testing.T) {
	handler := newHandler(newMemoryRepo(), &recordingPublisher{})

	_, err := handler.Handle(context.Background(), commands.ExtractAndMergeCommand{
		Scope:      todo.Scope{Kind: "team", ID: "X"},
		Candidates: candidates("Fix the login bug"),
	})

	assert.ErrorIs(t, err, todo.ErrInvalidScope)
}
