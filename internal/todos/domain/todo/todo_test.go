package todo_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

func TestNewTodo(t *testing.T) {
	scope := todo.NewChannelScope("C123")

	td, err := todo.NewTodo(scope, "Fix the login bug")

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, td.ID())
	assert.Equal(t, scope, td.Scope())
	assert.Equal(t, "Fix the login bug", td.Title())
	assert.Equal(t, todo.StatusPending, td.Status())
	assert.Equal(t, value_objects.TierMedium, td.Tier())
	assert.False(t, td.TierPinned())
	assert.False(t, td.IsCompleted())
	assert.Empty(t, td.SourceRefs())
}

func TestNewTodo_EmitsCreatedEvent(t *testing.T) {
	scope := todo.NewPersonalScope("U42")
	td, err := todo.NewTodo(scope, "Prepare the demo")

	require.NoError(t, err)
	events := td.DomainEvents()
	require.Len(t, events, 1)

	created, ok := events[0].(*todo.TodoCreated)
	require.True(t, ok)
	assert.Equal(t, td.ID(), created.AggregateID())
	assert.Equal(t, todo.TodoCreatedKey, created.RoutingKey())
}

func TestNewTodo_EmptyTitle(t *testing.T) {
	scope := todo.NewChannelScope("C123")

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := todo.NewTodo(scope, title)
		assert.ErrorIs(t, err, todo.ErrEmptyTitle)
	}
}

func TestNewTodo_InvalidScope(t *testing.T) {
	_, err := todo.NewTodo(todo.Scope{}, "Fix the login bug")
	require.Error(t, err)
}

func TestTodo_TrimsTitle(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	td, err := todo.NewTodo(scope, "  Fix the login bug  ")

	require.NoError(t, err)
	assert.Equal(t, "Fix the login bug", td.Title())
}

func TestTodo_Complete(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	td, _ := todo.NewTodo(scope, "Fix the login bug")

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	require.NoError(t, td.Complete(now))

	assert.True(t, td.IsCompleted())
	require.NotNil(t, td.CompletedAt())
	assert.True(t, now.Equal(*td.CompletedAt()))

	assert.ErrorIs(t, td.Complete(now), todo.ErrAlreadyCompleted)
}

func TestTodo_IsOverdue(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	td, _ := todo.NewTodo(scope, "Fix the login bug")
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	assert.False(t, td.IsOverdue(now), "no due date")

	past := now.Add(-time.Hour)
	td.SetDueAt(&past)
	assert.True(t, td.IsOverdue(now))

	require.NoError(t, td.Complete(now))
	assert.False(t, td.IsOverdue(now), "completed todos are never overdue")
}

func TestTodo_PinTier(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	td, _ := todo.NewTodo(scope, "Fix the login bug")

	require.NoError(t, td.PinTier(value_objects.TierLow))
	assert.True(t, td.TierPinned())
	assert.Equal(t, value_objects.TierLow, td.Tier())

	// Automatic raises are ignored once pinned.
	assert.False(t, td.RaiseTier(value_objects.TierCritical))
	assert.Equal(t, value_objects.TierLow, td.Tier())
}

func TestTodo_RaiseTier(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	td, _ := todo.NewTodo(scope, "Fix the login bug")

	assert.True(t, td.RaiseTier(value_objects.TierHigh))
	assert.Equal(t, value_objects.TierHigh, td.Tier())

	assert.False(t, td.RaiseTier(value_objects.TierMedium), "never lowers")
	assert.False(t, td.RaiseTier(value_objects.TierHigh), "no-op at same tier")
	assert.Equal(t, value_objects.TierHigh, td.Tier())
}

func TestTodo_AbsorbUnionsRefsAndKeepsMaxConfidence(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	td, _ := todo.NewTodo(scope, "Fix the login bug")
	ref := todo.SourceRef{SourceID: "C123", MessageRef: "1700000001.000100"}
	td.SeedObservation(ref, 0.7, value_objects.TierMedium)

	// The same observation again changes nothing.
	assert.False(t, td.Absorb(ref, 0.7, value_objects.TierMedium))
	assert.Len(t, td.SourceRefs(), 1)

	// A new observation adds its ref and raises confidence.
	other := todo.SourceRef{SourceID: "C123", MessageRef: "1700000002.000100"}
	assert.True(t, td.Absorb(other, 0.9, value_objects.TierMedium))
	assert.Len(t, td.SourceRefs(), 2)
	assert.InDelta(t, 0.9, td.Confidence(), 0.0001)

	// Lower confidence never wins.
	third := todo.SourceRef{SourceID: "C123", MessageRef: "1700000003.000100"}
	td.Absorb(third, 0.5, value_objects.TierMedium)
	assert.InDelta(t, 0.9, td.Confidence(), 0.0001)
}

func TestRehydrate_PreservesState(t *testing.T) {
	scope := todo.NewPersonalScope("U42")
	id := uuid.New()
	createdAt := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	refs := []todo.SourceRef{{SourceID: "D99", MessageRef: "1700000001.000100"}}

	td := todo.Rehydrate(id, scope, "Prepare the demo", value_objects.TaskTypeMeeting,
		value_objects.TierHigh, true, todo.StatusInProgress, 0.85,
		nil, "U42", "sam", refs, nil, createdAt, createdAt, 3)

	assert.Equal(t, id, td.ID())
	assert.Equal(t, value_objects.TierHigh, td.Tier())
	assert.True(t, td.TierPinned())
	assert.Equal(t, todo.StatusInProgress, td.Status())
	assert.Equal(t, 3, td.Version())
	assert.Empty(t, td.DomainEvents(), "rehydration raises no events")
}

func TestParseScopeKey(t *testing.T) {
	scope, err := todo.ParseScopeKey("channel:C123")
	require.NoError(t, err)
	assert.Equal(t, todo.NewChannelScope("C123"), scope)

	scope, err = todo.ParseScopeKey("personal:U42")
	require.NoError(t, err)
	assert.Equal(t, todo.NewPersonalScope("U42"), scope)

	_, err = todo.ParseScopeKey("bogus")
	assert.Error(t, err)

	_, err = todo.ParseScopeKey("team:C123")
	assert.Error(t, err)
}

func TestScope_Key(t *testing.T) {
	assert.Equal(t, "channel:C123", todo.NewChannelScope("C123").Key())
	assert.Equal(t, "personal:U42", todo.NewPersonalScope("U42").Key())
}
