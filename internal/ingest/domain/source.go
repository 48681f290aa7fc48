// Package domain models chat sources and the messages fetched from them.
package domain

import "context"

// SourceKind classifies where a conversation lives.
type SourceKind string

const (
	SourceKindChannel SourceKind = "channel"
	SourceKindPrivate SourceKind = "private"
	SourceKindDM      SourceKind = "dm"
	SourceKindGroup   SourceKind = "group"
)

// IsDirect returns true for one-on-one and small-group conversations.
// Direct conversations carry a stricter classification threshold.
func (k SourceKind) IsDirect() bool {
	return k == SourceKindDM || k == SourceKindGroup
}

// Source identifies a single conversation to fetch messages from.
type Source struct {
	ID   string
	Name string
	Kind SourceKind
}

// SourceDirectory enumerates the conversations visible to the workspace
// member the engine acts for.
type SourceDirectory interface {
	Sources(ctx context.Context) ([]Source, error)
}

// IdentityResolver resolves provider user IDs to display names.
type IdentityResolver interface {
	ResolveUser(ctx context.Context, userID string) (string, error)
}
