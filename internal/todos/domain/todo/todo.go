// Package todo contains the Todo aggregate and its repository contract.
package todo

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasklens/tasklens/internal/shared/domain"
	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

var (
	ErrEmptyTitle       = errors.New("todo title cannot be empty")
	ErrAlreadyCompleted = errors.New("todo is already completed")
)

// Status represents the todo lifecycle state.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ParseStatus creates a Status from a string.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(s) {
	case "pending":
		return StatusPending, nil
	case "in_progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return StatusPending, errors.New("invalid status value")
	}
}

// Todo is one deduplicated unit of work inside a scope's todo set.
type Todo struct {
	domain.BaseAggregateRoot
	scope        Scope
	title        string
	taskType     value_objects.TaskType
	tier         value_objects.Tier
	tierPinned   bool
	status       Status
	confidence   float64
	dueAt        *time.Time
	assigneeID   string
	assigneeName string
	sourceRefs   []SourceRef
	completedAt  *time.Time
}

// NewTodo creates a new pending todo within a scope.
func NewTodo(scope Scope, title string) (*Todo, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	t := &Todo{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		scope:             scope,
		title:             title,
		taskType:          value_objects.TaskTypeGeneral,
		tier:              value_objects.TierMedium,
		status:            StatusPending,
		sourceRefs:        make([]SourceRef, 0),
	}

	t.AddDomainEvent(NewTodoCreated(t.ID(), scope, title, t.tier))

	return t, nil
}

// Rehydrate recreates a todo from persisted state without raising events.
func Rehydrate(
	id uuid.UUID,
	scope Scope,
	title string,
	taskType value_objects.TaskType,
	tier value_objects.Tier,
	tierPinned bool,
	status Status,
	confidence float64,
	dueAt *time.Time,
	assigneeID, assigneeName string,
	sourceRefs []SourceRef,
	completedAt *time.Time,
	createdAt, updatedAt time.Time,
	version int,
) *Todo {
	if sourceRefs == nil {
		sourceRefs = make([]SourceRef, 0)
	}
	return &Todo{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(
			domain.RehydrateBaseEntity(id, createdAt, updatedAt), version),
		scope:        scope,
		title:        title,
		taskType:     taskType,
		tier:         tier,
		tierPinned:   tierPinned,
		status:       status,
		confidence:   confidence,
		dueAt:        dueAt,
		assigneeID:   assigneeID,
		assigneeName: assigneeName,
		sourceRefs:   sourceRefs,
		completedAt:  completedAt,
	}
}

// Getters

func (t *Todo) Scope() Scope                      { return t.scope }
func (t *Todo) Title() string                     { return t.title }
func (t *Todo) TaskType() value_objects.TaskType  { return t.taskType }
func (t *Todo) Tier() value_objects.Tier          { return t.tier }
func (t *Todo) TierPinned() bool                  { return t.tierPinned }
func (t *Todo) Status() Status                    { return t.status }
func (t *Todo) Confidence() float64               { return t.confidence }
func (t *Todo) DueAt() *time.Time                 { return t.dueAt }
func (t *Todo) AssigneeID() string                { return t.assigneeID }
func (t *Todo) AssigneeName() string              { return t.assigneeName }
func (t *Todo) CompletedAt() *time.Time           { return t.completedAt }
func (t *Todo) IsCompleted() bool                 { return t.status == StatusCompleted }

// SourceRefs returns a copy of the ordered source references.
func (t *Todo) SourceRefs() []SourceRef {
	refs := make([]SourceRef, len(t.sourceRefs))
	copy(refs, t.sourceRefs)
	return refs
}

// IsOverdue returns true when the due date has passed and the todo is still
// open.
func (t *Todo) IsOverdue(now time.Time) bool {
	return t.dueAt != nil && t.dueAt.Before(now) && !t.IsCompleted()
}

// SetTaskType sets the task category.
func (t *Todo) SetTaskType(taskType value_objects.TaskType) {
	if t.taskType == taskType {
		return
	}
	t.taskType = taskType
	t.Touch()
}

// SetDueAt sets or clears the due date.
func (t *Todo) SetDueAt(dueAt *time.Time) {
	t.dueAt = dueAt
	t.Touch()
}

// Assign records the responsible workspace member.
func (t *Todo) Assign(id, name string) {
	if t.assigneeID == id && t.assigneeName == name {
		return
	}
	t.assigneeID = id
	t.assigneeName = name
	t.Touch()
}

// PinTier sets the tier manually. Pinned tiers are never changed by
// automatic merges.
func (t *Todo) PinTier(tier value_objects.Tier) error {
	if !tier.IsValid() {
		return value_objects.ErrInvalidTier
	}
	t.tier = tier
	t.tierPinned = true
	t.Touch()
	t.AddDomainEvent(NewTodoUpdated(t.ID(), t.scope))
	return nil
}

// RaiseTier raises an unpinned tier. Automatic merges never lower a tier
// and never touch a pinned one.
func (t *Todo) RaiseTier(tier value_objects.Tier) bool {
	if t.tierPinned || tier <= t.tier {
		return false
	}
	t.tier = tier
	t.Touch()
	return true
}

// Start moves a pending todo to in progress.
func (t *Todo) Start() error {
	if t.IsCompleted() {
		return ErrAlreadyCompleted
	}
	t.status = StatusInProgress
	t.Touch()
	t.AddDomainEvent(NewTodoUpdated(t.ID(), t.scope))
	return nil
}

// Complete marks the todo done at the given time.
func (t *Todo) Complete(now time.Time) error {
	if t.IsCompleted() {
		return ErrAlreadyCompleted
	}
	completedAt := now.UTC()
	t.status = StatusCompleted
	t.completedAt = &completedAt
	t.Touch()
	t.AddDomainEvent(NewTodoCompleted(t.ID(), t.scope, completedAt))
	return nil
}

// Absorb merges one more observation of the same task into this todo:
// the source ref set is unioned, confidence keeps its maximum, and an
// unpinned tier may only move up. Returns true when anything changed.
func (t *Todo) Absorb(ref SourceRef, confidence float64, tier value_objects.Tier) bool {
	changed := false

	if t.addRef(ref) {
		changed = true
	}
	if confidence > t.confidence {
		t.confidence = confidence
		changed = true
	}
	if t.RaiseTier(tier) {
		changed = true
	}

	if changed {
		t.Touch()
		t.AddDomainEvent(NewTodoUpdated(t.ID(), t.scope))
	}
	return changed
}

// SeedObservation records the first observation on a freshly created todo.
func (t *Todo) SeedObservation(ref SourceRef, confidence float64, tier value_objects.Tier) {
	t.addRef(ref)
	t.confidence = confidence
	if tier.IsValid() {
		t.tier = tier
	}
}

func (t *Todo) addRef(ref SourceRef) bool {
	if ref.SourceID == "" && ref.MessageRef == "" {
		return false
	}
	for _, existing := range t.sourceRefs {
		if existing.Identity() == ref.Identity() {
			return false
		}
	}
	t.sourceRefs = append(t.sourceRefs, ref)
	return true
}
