package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrSourceUnavailable indicates the message provider could not serve a
// fetch. Scans record it per source and keep going.
var ErrSourceUnavailable = errors.New("message source unavailable")

// Message is a normalized chat message.
type Message struct {
	// Ref is the provider-native message identifier, unique within a source.
	Ref       string
	Text      string
	AuthorID  string
	Timestamp time.Time
	Source    Source
}

// MessageSource fetches recent messages from a conversation.
type MessageSource interface {
	// Fetch returns up to limit messages posted after oldest, normalized
	// and ordered oldest first.
	Fetch(ctx context.Context, src Source, limit int, oldest time.Time) ([]Message, error)
}

// Normalize trims whitespace and collapses internal runs of spaces.
// Returns false when nothing useful remains.
func Normalize(text string) (string, bool) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", false
	}
	return text, true
}
