package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	extraction "github.com/tasklens/tasklens/internal/extraction/domain"
	"github.com/tasklens/tasklens/internal/todos/application/services"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

func newEngine() *services.MergeEngine {
	return services.NewMergeEngine(services.DefaultMergeConfig())
}

func candidate(title string, confidence float64, sourceID, messageRef string) extraction.Candidate {
	return extraction.Candidate{
		Title:      title,
		TaskType:   "general",
		Signal:     0.5,
		Confidence: confidence,
		SourceID:   sourceID,
		MessageRef: messageRef,
	}
}

func TestMerge_CreatesNewTodos(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	engine := newEngine()

	outcome := engine.Merge(scope, nil, []extraction.Candidate{
		candidate("Fix the login bug", 0.9, "C123", "1700000001.000100"),
		candidate("Plan the offsite agenda", 0.8, "C123", "1700000002.000100"),
	})

	assert.Equal(t, 2, outcome.Summary.Created)
	assert.Equal(t, 0, outcome.Summary.Updated)
	require.Len(t, outcome.Created, 2)
	assert.Equal(t, "Fix the login bug", outcome.Created[0].Title())
	assert.Len(t, outcome.Created[0].SourceRefs(), 1)
}

func TestMerge_ExactTitleMatchIgnoresCaseAndSpacing(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	engine := newEngine()

	existing, err := todo.NewTodo(scope, "Fix the login bug")
	require.NoError(t, err)
	existing.SeedObservation(todo.SourceRef{SourceID: "C123", MessageRef: "1700000001.000100"}, 0.7, value_objects.TierMedium)

	outcome := engine.Merge(scope, []*todo.Todo{existing},
		[]extraction.Candidate{candidate("  FIX   the Login BUG ", 0.9, "C123", "1700000002.000100")})

	assert.Equal(t, 0, outcome.Summary.Created)
	assert.Equal(t, 1, outcome.Summary.Updated)
	assert.Len(t, existing.SourceRefs(), 2)
	assert.InDelta(t, 0.9, existing.Confidence(), 0.0001)
}

func TestMerge_FuzzyMatchMergesNearDuplicates(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	engine := newEngine()

	existing, err := todo.NewTodo(scope, "Fix the login bug")
	require.NoError(t, err)
	existing.SeedObservation(todo.SourceRef{SourceID: "C123", MessageRef: "1700000001.000100"}, 0.7, value_objects.TierMedium)

	// 4 of 5 unique tokens overlap: similarity 0.8
	outcome := engine.Merge(scope, []*todo.Todo{existing},
		[]extraction.Candidate{candidate("Fix the login bug today", 0.8, "C123", "1700000002.000100")})

	assert.Equal(t, 0, outcome.Summary.Created)
	assert.Equal(t, 1, outcome.Summary.Updated)
	assert.Len(t, existing.SourceRefs(), 2)
}

func TestMerge_ShortTitlesNeverFuzzyMatch(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	engine := newEngine()

	existing, err := todo.NewTodo(scope, "Fix bug")
	require.NoError(t, err)

	outcome := engine.Merge(scope, []*todo.Todo{existing},
		[]extraction.Candidate{candidate("Fix bugs", 0.8, "C123", "1700000002.000100")})

	// Two tokens each: below the fuzzy guard, and not an exact match.
	assert.Equal(t, 1, outcome.Summary.Created)
}

func TestMerge_CompletedTodosMatchExactlyButNotFuzzily(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	engine := newEngine()

	completed, err := todo.NewTodo(scope, "Fix the login bug")
	require.NoError(t, err)
	require.NoError(t, completed.Complete(time.Now()))

	// Near-duplicate of a completed todo starts fresh.
	outcome := engine.Merge(scope, []*todo.Todo{completed},
		[]extraction.Candidate{candidate("Fix the login bug today", 0.8, "C123", "1700000002.000100")})
	assert.Equal(t, 1, outcome.Summary.Created)

	// The exact same title lands on the completed todo instead.
	outcome = engine.Merge(scope, []*todo.Todo{completed},
		[]extraction.Candidate{candidate("Fix the login bug", 0.8, "C123", "1700000003.000100")})
	assert.Equal(t, 0, outcome.Summary.Created)
	assert.Equal(t, 1, outcome.Summary.Updated)
}

func TestMerge_IntraBatchDuplicatesCollapse(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	engine := newEngine()

	outcome := engine.Merge(scope, nil, []extraction.Candidate{
		candidate("Review the deployment checklist", 0.7, "C123", "1700000001.000100"),
		candidate("review the deployment checklist", 0.9, "C123", "1700000002.000100"),
		candidate("Review the deployment checklist again", 0.6, "C123", "1700000003.000100"),
	})

	// The highest-confidence one survives; the exact and fuzzy duplicates
	// collapse onto it before any todo is created.
	assert.Equal(t, 1, outcome.Summary.Created)
	require.Len(t, outcome.Created, 1)
	assert.InDelta(t, 0.9, outcome.Created[0].Confidence(), 0.0001)
}

func TestMerge_Idempotent(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	engine := newEngine()

	due := time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC)
	batch := []extraction.Candidate{
		{
			Title:      "Fix the login bug",
			TaskType:   "bug",
			Signal:     0.75,
			Confidence: 0.9,
			DueAt:      &due,
			SourceID:   "C123",
			MessageRef: "1700000001.000100",
		},
	}

	first := engine.Merge(scope, nil, batch)
	require.Equal(t, 1, first.Summary.Created)

	second := engine.Merge(scope, first.Created, batch)
	assert.Equal(t, 0, second.Summary.Created)
	assert.Equal(t, 0, second.Summary.Updated)
	assert.Equal(t, 1, second.Summary.Unchanged)
}

func TestMerge_NeverLowersTier(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	engine := newEngine()

	existing, err := todo.NewTodo(scope, "Fix the login bug")
	require.NoError(t, err)
	existing.SeedObservation(todo.SourceRef{SourceID: "C123", MessageRef: "1700000001.000100"}, 0.9, value_objects.TierCritical)

	low := candidate("Fix the login bug", 0.5, "C123", "1700000002.000100")
	low.Signal = 0.1 // would map to the low tier

	engine.Merge(scope, []*todo.Todo{existing}, []extraction.Candidate{low})
	assert.Equal(t, value_objects.TierCritical, existing.Tier())
}

func TestMerge_PinnedTierUnchanged(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	engine := newEngine()

	existing, err := todo.NewTodo(scope, "Fix the login bug")
	require.NoError(t, err)
	require.NoError(t, existing.PinTier(value_objects.TierLow))

	urgent := candidate("Fix the login bug", 0.95, "C123", "1700000002.000100")
	urgent.Signal = 0.95 // would map to critical

	engine.Merge(scope, []*todo.Todo{existing}, []extraction.Candidate{urgent})
	assert.Equal(t, value_objects.TierLow, existing.Tier())
	assert.True(t, existing.TierPinned())
}

func TestMerge_FillsMissingDueAndAssignee(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	engine := newEngine()

	existing, err := todo.NewTodo(scope, "Fix the login bug")
	require.NoError(t, err)
	existing.SeedObservation(todo.SourceRef{SourceID: "C123", MessageRef: "1700000001.000100"}, 0.7, value_objects.TierMedium)

	due := time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC)
	enriched := candidate("Fix the login bug", 0.6, "C123", "1700000002.000100")
	enriched.DueAt = &due
	enriched.AssigneeID = "U42"
	enriched.AssigneeName = "sam"

	outcome := engine.Merge(scope, []*todo.Todo{existing}, []extraction.Candidate{enriched})

	assert.Equal(t, 1, outcome.Summary.Updated)
	require.NotNil(t, existing.DueAt())
	assert.True(t, due.Equal(*existing.DueAt()))
	assert.Equal(t, "U42", existing.AssigneeID())
	assert.Equal(t, "sam", existing.AssigneeName())
}

func TestMerge_ExistingDueAndAssigneeWin(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	engine := newEngine()

	originalDue := time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC)
	existing, err := todo.NewTodo(scope, "Fix the login bug")
	require.NoError(t, err)
	existing.SetDueAt(&originalDue)
	existing.Assign("U1", "alex")

	laterDue := originalDue.Add(48 * time.Hour)
	rival := candidate("Fix the login bug", 0.9, "C123", "1700000002.000100")
	rival.DueAt = &laterDue
	rival.AssigneeID = "U2"
	rival.AssigneeName = "sam"

	engine.Merge(scope, []*todo.Todo{existing}, []extraction.Candidate{rival})

	assert.True(t, originalDue.Equal(*existing.DueAt()))
	assert.Equal(t, "U1", existing.AssigneeID())
}

func TestMerge_EmptyBatch(t *testing.T) {
	scope := todo.NewChannelScope("C123")
	engine := newEngine()

	outcome := engine.Merge(scope, nil, nil)

	assert.Equal(t, 0, outcome.Summary.Total())
	assert.Empty(t, outcome.Created)
	assert.Empty(t, outcome.Updated)
}
