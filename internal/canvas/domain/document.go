// Package domain models rendered canvas documents and per-scope canvas
// state.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

// Item is one todo line in a rendered document.
type Item struct {
	ID           uuid.UUID
	Title        string
	TaskType     value_objects.TaskType
	Tier         value_objects.Tier
	Overdue      bool
	DueAt        *time.Time
	AssigneeName string
	Confidence   float64
	CompletedAt  *time.Time
}

// Section groups items under one heading: a tier bucket or the
// recently-completed trailer.
type Section struct {
	Title     string
	Tier      value_objects.Tier
	Completed bool
	Items     []Item
}

// Summary carries the document statistics block.
type Summary struct {
	Total     int
	Pending   int
	Completed int
	// CompletionRate is a percentage rounded to one decimal, 0.0 when the
	// set is empty.
	CompletionRate float64
}

// Document is the full intermediate representation of a canvas. Rendering a
// given todo set always yields the same document apart from GeneratedAt.
type Document struct {
	Title       string
	ScopeKey    string
	GeneratedAt time.Time
	Sections    []Section
	Summary     Summary
}
