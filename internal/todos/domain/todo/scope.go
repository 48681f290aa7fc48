package todo

import (
	"errors"
	"fmt"
	"strings"
)

// ScopeKind distinguishes channel-wide todo sets from a member's personal set.
type ScopeKind string

const (
	ScopeKindChannel  ScopeKind = "channel"
	ScopeKindPersonal ScopeKind = "personal"
)

var ErrInvalidScope = errors.New("invalid scope")

// Scope identifies a todo set. Exactly one set exists per scope.
type Scope struct {
	Kind ScopeKind
	ID   string
}

// NewChannelScope creates a channel scope.
func NewChannelScope(channelID string) Scope {
	return Scope{Kind: ScopeKindChannel, ID: channelID}
}

// NewPersonalScope creates a personal scope for a workspace member.
func NewPersonalScope(userID string) Scope {
	return Scope{Kind: ScopeKindPersonal, ID: userID}
}

// Key returns the canonical string form, e.g. "channel:C123".
func (s Scope) Key() string {
	return string(s.Kind) + ":" + s.ID
}

// IsZero returns true for the empty scope.
func (s Scope) IsZero() bool {
	return s.Kind == "" && s.ID == ""
}

// Validate checks the scope is well formed.
func (s Scope) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidScope)
	}
	switch s.Kind {
	case ScopeKindChannel, ScopeKindPersonal:
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidScope, s.Kind)
	}
}

// ParseScopeKey parses the canonical "kind:id" form.
func ParseScopeKey(key string) (Scope, error) {
	kind, id, ok := strings.Cut(key, ":")
	if !ok {
		return Scope{}, fmt.Errorf("%w: %q", ErrInvalidScope, key)
	}
	s := Scope{Kind: ScopeKind(kind), ID: id}
	if err := s.Validate(); err != nil {
		return Scope{}, err
	}
	return s, nil
}
