// Package value_objects holds the immutable value types of the todos domain.
package value_objects

import (
	"errors"
	"strings"
)

// Tier represents a todo's urgency bucket, ordered low to critical.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
	TierCritical
)

var ErrInvalidTier = errors.New("invalid tier value")

var tierNames = map[Tier]string{
	TierLow:      "low",
	TierMedium:   "medium",
	TierHigh:     "high",
	TierCritical: "critical",
}

var tierValues = map[string]Tier{
	"low":      TierLow,
	"medium":   TierMedium,
	"high":     TierHigh,
	"critical": TierCritical,
}

// ParseTier creates a Tier from a string.
func ParseTier(s string) (Tier, error) {
	t, ok := tierValues[strings.ToLower(s)]
	if !ok {
		return TierMedium, ErrInvalidTier
	}
	return t, nil
}

// TierFromSignal maps a priority signal in [0,1] to a tier.
func TierFromSignal(signal float64) Tier {
	switch {
	case signal >= 0.90:
		return TierCritical
	case signal >= 0.65:
		return TierHigh
	case signal >= 0.35:
		return TierMedium
	default:
		return TierLow
	}
}

// String returns the string representation of the tier.
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// IsValid returns true if the tier is a known value.
func (t Tier) IsValid() bool {
	_, ok := tierNames[t]
	return ok
}

// Elevated returns the next tier up, capped at critical.
func (t Tier) Elevated() Tier {
	if t >= TierCritical {
		return TierCritical
	}
	return t + 1
}

// Tiers returns all tiers ordered most to least urgent.
func Tiers() []Tier {
	return []Tier{TierCritical, TierHigh, TierMedium, TierLow}
}
