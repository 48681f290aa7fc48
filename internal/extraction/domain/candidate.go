// Package domain models classifier output before it is merged into a todo
// set.
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrClassificationUnavailable indicates the oracle could not serve a
	// batch. The batch yields zero candidates; stored todos are untouched.
	ErrClassificationUnavailable = errors.New("classification backend unavailable")

	// ErrMalformedCandidate indicates an oracle record was missing required
	// fields. Such records are dropped and counted, never fatal.
	ErrMalformedCandidate = errors.New("malformed candidate record")
)

// Candidate is a validated, clamped classifier judgment about one message.
type Candidate struct {
	Title        string
	TaskType     string
	Signal       float64 // priority signal in [0,1]
	Confidence   float64 // classifier confidence in [0,1]
	DueAt        *time.Time
	AssigneeID   string
	AssigneeName string
	SourceID     string
	MessageRef   string
}

// Oracle is the external AI backend that judges message batches.
type Oracle interface {
	// Complete sends a prompt and returns the raw text reply.
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ClampUnit clamps a value into [0,1].
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
