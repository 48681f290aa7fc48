// Package application holds the canvas rendering and synchronization use
// cases.
package application

import (
	"math"
	"sort"
	"time"

	"github.com/tasklens/tasklens/internal/canvas/domain"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

// RendererConfig tunes document rendering.
type RendererConfig struct {
	// CompletedWindow caps the recently-completed section.
	CompletedWindow int
}

// DefaultRendererConfig returns the standard rendering settings.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{CompletedWindow: 10}
}

// Renderer builds canvas documents from todo sets. It is pure: the same set
// and clock always produce the same document.
type Renderer struct {
	cfg RendererConfig
}

// NewRenderer creates a renderer.
func NewRenderer(cfg RendererConfig) *Renderer {
	if cfg.CompletedWindow <= 0 {
		cfg.CompletedWindow = DefaultRendererConfig().CompletedWindow
	}
	return &Renderer{cfg: cfg}
}

// Render buckets open todos into tier sections, appends the
// recently-completed trailer, and computes the summary. An overdue todo
// displays one tier above its own, capped at critical.
func (r *Renderer) Render(scope todo.Scope, todos []*todo.Todo, now time.Time) domain.Document {
	doc := domain.Document{
		Title:       documentTitle(scope),
		ScopeKey:    scope.Key(),
		GeneratedAt: now.UTC(),
	}

	buckets := make(map[value_objects.Tier][]domain.Item)
	var completed []domain.Item

	for _, t := range todos {
		item := toItem(t, now)
		if t.IsCompleted() {
			completed = append(completed, item)
			continue
		}

		tier := t.Tier()
		if item.Overdue {
			tier = tier.Elevated()
		}
		item.Tier = tier
		buckets[tier] = append(buckets[tier], item)
	}

	doc.Summary = summarize(len(todos), len(completed))

	for _, tier := range value_objects.Tiers() {
		items := buckets[tier]
		if len(items) == 0 {
			continue
		}
		sortPending(items)
		doc.Sections = append(doc.Sections, domain.Section{
			Title: sectionTitle(tier),
			Tier:  tier,
			Items: items,
		})
	}

	if len(completed) > 0 {
		sort.SliceStable(completed, func(i, j int) bool {
			ci, cj := completed[i].CompletedAt, completed[j].CompletedAt
			switch {
			case ci == nil:
				return false
			case cj == nil:
				return true
			case !ci.Equal(*cj):
				return ci.After(*cj)
			default:
				return completed[i].ID.String() < completed[j].ID.String()
			}
		})
		if len(completed) > r.cfg.CompletedWindow {
			completed = completed[:r.cfg.CompletedWindow]
		}
		doc.Sections = append(doc.Sections, domain.Section{
			Title:     "Recently Completed",
			Completed: true,
			Items:     completed,
		})
	}

	return doc
}

// sortPending orders items within a tier: overdue first, then earliest due
// date (no due date last), then confidence descending, then ID for a total
// deterministic order.
func sortPending(items []domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Overdue != b.Overdue {
			return a.Overdue
		}
		switch {
		case a.DueAt != nil && b.DueAt != nil && !a.DueAt.Equal(*b.DueAt):
			return a.DueAt.Before(*b.DueAt)
		case a.DueAt != nil && b.DueAt == nil:
			return true
		case a.DueAt == nil && b.DueAt != nil:
			return false
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.ID.String() < b.ID.String()
	})
}

func toItem(t *todo.Todo, now time.Time) domain.Item {
	return domain.Item{
		ID:           t.ID(),
		Title:        t.Title(),
		TaskType:     t.TaskType(),
		Tier:         t.Tier(),
		Overdue:      t.IsOverdue(now),
		DueAt:        t.DueAt(),
		AssigneeName: t.AssigneeName(),
		Confidence:   t.Confidence(),
		CompletedAt:  t.CompletedAt(),
	}
}

func summarize(total, completed int) domain.Summary {
	summary := domain.Summary{
		Total:     total,
		Pending:   total - completed,
		Completed: completed,
	}
	if total > 0 {
		rate := float64(completed) / float64(total) * 100
		summary.CompletionRate = math.Round(rate*10) / 10
	}
	return summary
}

func documentTitle(scope todo.Scope) string {
	if scope.Kind == todo.ScopeKindPersonal {
		return "Personal Tasks"
	}
	return "Team Tasks"
}

func sectionTitle(tier value_objects.Tier) string {
	switch tier {
	case value_objects.TierCritical:
		return "Critical"
	case value_objects.TierHigh:
		return "High Priority"
	case value_objects.TierMedium:
		return "Medium Priority"
	default:
		return "Low Priority"
	}
}
