package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklens/tasklens/internal/canvas/application"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

var renderNow = time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC)

func newTodoWithTier(t *testing.T, scope todo.Scope, title string, tier value_objects.Tier) *todo.Todo {
	t.Helper()
	td, err := todo.NewTodo(scope, title)
	require.NoError(t, err)
	if tier != value_objects.TierMedium {
		require.NoError(t, td.PinTier(tier))
	}
	return td
}

func TestRender_BucketsByTier(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	renderer := application.NewRenderer(application.DefaultRendererConfig())

	todos := []*todo.Todo{
		newTodoWithTier(t, scope, "Plan the offsite agenda", value_objects.TierLow),
		newTodoWithTier(t, scope, "Fix the login bug", value_objects.TierCritical),
		newTodoWithTier(t, scope, "Review the deploy checklist", value_objects.TierHigh),
	}

	doc := renderer.Render(scope, todos, renderNow)

	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "Critical", doc.Sections[0].Title)
	assert.Equal(t, "High Priority", doc.Sections[1].Title)
	assert.Equal(t, "Low Priority", doc.Sections[2].Title)
	assert.Equal(t, "Team Tasks", doc.Title)
	assert.Equal(t, "channel:C123", doc.ScopeKey)
}

func TestRender_OverdueElevatesOneTier(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	renderer := application.NewRenderer(application.DefaultRendererConfig())

	past := renderNow.Add(-24 * time.Hour)
	overdue := newTodoWithTier(t, scope, "Fix the login bug", value_objects.TierMedium)
	overdue.SetDueAt(&past)

	doc := renderer.Render(scope, []*todo.Todo{overdue}, renderNow)

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, value_objects.TierHigh, doc.Sections[0].Tier)
	assert.True(t, doc.Sections[0].Items[0].Overdue)
}

func TestRender_OverdueElevationCapsAtCritical(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	renderer := application.NewRenderer(application.DefaultRendererConfig())

	past := renderNow.Add(-24 * time.Hour)
	overdue := newTodoWithTier(t, scope, "Fix the login bug", value_objects.TierCritical)
	overdue.SetDueAt(&past)

	doc := renderer.Render(scope, []*todo.Todo{overdue}, renderNow)

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, value_objects.TierCritical, doc.Sections[0].Tier)
}

func TestRender_PendingOrderWithinTier(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	renderer := application.NewRenderer(application.DefaultRendererConfig())

	soon := renderNow.Add(2 * time.Hour)
	later := renderNow.Add(48 * time.Hour)
	past := renderNow.Add(-time.Hour)

	overdueTodo := newTodoWithTier(t, scope, "Overdue item", value_objects.TierHigh)
	overdueTodo.SetDueAt(&past)
	// Overdue elevates medium to high; pin the others to high directly.
	require.NoError(t, overdueTodo.PinTier(value_objects.TierMedium))

	dueSoon := newTodoWithTier(t, scope, "Due soon item", value_objects.TierHigh)
	dueSoon.SetDueAt(&soon)
	dueLater := newTodoWithTier(t, scope, "Due later item", value_objects.TierHigh)
	dueLater.SetDueAt(&later)
	noDue := newTodoWithTier(t, scope, "No due item", value_objects.TierHigh)

	doc := renderer.Render(scope, []*todo.Todo{noDue, dueLater, dueSoon, overdueTodo}, renderNow)

	require.Len(t, doc.Sections, 1)
	items := doc.Sections[0].Items
	require.Len(t, items, 4)
	assert.Equal(t, "Overdue item", items[0].Title)
	assert.Equal(t, "Due soon item", items[1].Title)
	assert.Equal(t, "Due later item", items[2].Title)
	assert.Equal(t, "No due item", items[3].Title)
}

func TestRender_CompletedWindow(t *testing.T) {
	scope := todo.NewPersonalScope("U42")
	renderer := application.NewRenderer(application.RendererConfig{CompletedWindow: 2})

	var todos []*todo.Todo
	for i := 0; i < 4; i++ {
		td, err := todo.NewTodo(scope, "Completed item "+string(rune('A'+i)))
		require.NoError(t, err)
		require.NoError(t, td.Complete(renderNow.Add(time.Duration(i)*time.Hour)))
		todos = append(todos, td)
	}

	doc := renderer.Render(scope, todos, renderNow)

	require.Len(t, doc.Sections, 1)
	section := doc.Sections[0]
	assert.True(t, section.Completed)
	require.Len(t, section.Items, 2)
	// Most recent completions first.
	assert.Equal(t, "Completed item D", section.Items[0].Title)
	assert.Equal(t, "Completed item C", section.Items[1].Title)
}

func TestRender_Summary(t *testing.T) {
	scope := todo.NewPersonalScope("U42")
	renderer := application.NewRenderer(application.DefaultRendererConfig())

	open1, _ := todo.NewTodo(scope, "Open one")
	open2, _ := todo.NewTodo(scope, "Open two")
	done, _ := todo.NewTodo(scope, "Done one")
	require.NoError(t, done.Complete(renderNow))

	doc := renderer.Render(scope, []*todo.Todo{open1, open2, done}, renderNow)

	assert.Equal(t, 3, doc.Summary.Total)
	assert.Equal(t, 2, doc.Summary.Pending)
	assert.Equal(t, 1, doc.Summary.Completed)
	assert.InDelta(t, 33.3, doc.Summary.CompletionRate, 0.0001)
	assert.Equal(t, "Personal Tasks", doc.Title)
}

func TestRender_EmptySet(t *testing.T) {
	scope := todo.NewPersonalScope("U42")
	renderer := application.NewRenderer(application.DefaultRendererConfig())

	doc := renderer.Render(scope, nil, renderNow)

	assert.Empty(t, doc.Sections)
	assert.Zero(t, doc.Summary.Total)
	assert.Zero(t, doc.Summary.CompletionRate)
}

func TestRender_Deterministic(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	renderer := application.NewRenderer(application.DefaultRendererConfig())

	a := newTodoWithTier(t, scope, "Fix the login bug", value_objects.TierHigh)
	b := newTodoWithTier(t, scope, "Review the deploy", value_objects.TierHigh)

	first := renderer.Render(scope, []*todo.Todo{a, b}, renderNow)
	second := renderer.Render(scope, []*todo.Todo{b, a}, renderNow)

	assert.Equal(t, first, second, "input order never changes the document")
}
