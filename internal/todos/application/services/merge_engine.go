package services

import (
	"sort"

	extraction "github.com/tasklens/tasklens/internal/extraction/domain"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/internal/todos/domain/value_objects"
)

// MergeConfig tunes candidate deduplication.
type MergeConfig struct {
	// SimilarityThreshold is the minimum token-overlap score for a fuzzy
	// title match.
	SimilarityThreshold float64
	// MinTitleTokens guards fuzzy matching: both titles must have at least
	// this many tokens, keeping short titles on exact matching only.
	MinTitleTokens int
}

// DefaultMergeConfig returns the standard merge thresholds.
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		SimilarityThreshold: 0.80,
		MinTitleTokens:      3,
	}
}

// ChangeSummary counts the outcome of one merge batch.
type ChangeSummary struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Total returns the number of candidates that reached the set.
func (s ChangeSummary) Total() int {
	return s.Created + s.Updated + s.Unchanged
}

// MergeOutcome carries the todos a merge touched.
type MergeOutcome struct {
	Created []*todo.Todo
	Updated []*todo.Todo
	Summary ChangeSummary
}

// MergeEngine folds classified candidates into a scope's todo set. It is
// pure: the caller loads the existing set and persists the outcome.
// Applying the same batch twice yields no further changes.
type MergeEngine struct {
	cfg MergeConfig
}

// NewMergeEngine creates a merge engine.
func NewMergeEngine(cfg MergeConfig) *MergeEngine {
	return &MergeEngine{cfg: cfg}
}

// Merge deduplicates candidates against each other and against the existing
// set, then creates or updates todos. Matching order: exact normalized title
// against the whole set, then best fuzzy match against open todos. Candidates
// are processed in descending confidence so intra-batch duplicates collapse
// onto the strongest one.
func (e *MergeEngine) Merge(scope todo.Scope, existing []*todo.Todo, candidates []extraction.Candidate) MergeOutcome {
	outcome := MergeOutcome{
		Created: make([]*todo.Todo, 0),
		Updated: make([]*todo.Todo, 0),
	}

	kept := e.dedupeBatch(candidates)

	byTitle := make(map[string]*todo.Todo, len(existing))
	open := make([]*todo.Todo, 0, len(existing))
	for _, t := range existing {
		byTitle[NormalizeTitle(t.Title())] = t
		if !t.IsCompleted() {
			open = append(open, t)
		}
	}

	created := make(map[string]bool)
	updated := make(map[string]bool)

	for _, candidate := range kept {
		normalized := NormalizeTitle(candidate.Title)
		ref := todo.SourceRef{SourceID: candidate.SourceID, MessageRef: candidate.MessageRef}
		tier := value_objects.TierFromSignal(candidate.Signal)

		target := byTitle[normalized]
		if target == nil {
			target = e.bestFuzzyMatch(normalized, open)
		}

		if target != nil {
			changed := target.Absorb(ref, candidate.Confidence, tier)
			if e.fillGaps(target, candidate) {
				changed = true
			}
			id := target.ID().String()
			switch {
			case created[id]:
				// Counted once as created even if later candidates land on it
			case changed && !updated[id]:
				updated[id] = true
				outcome.Updated = append(outcome.Updated, target)
				outcome.Summary.Updated++
			case changed:
				// Already counted as updated this batch
			default:
				outcome.Summary.Unchanged++
			}
			continue
		}

		t, err := todo.NewTodo(scope, candidate.Title)
		if err != nil {
			continue
		}
		t.SetTaskType(value_objects.ParseTaskType(candidate.TaskType))
		t.SeedObservation(ref, candidate.Confidence, tier)
		if candidate.DueAt != nil {
			t.SetDueAt(candidate.DueAt)
		}
		if candidate.AssigneeID != "" {
			t.Assign(candidate.AssigneeID, candidate.AssigneeName)
		}

		created[t.ID().String()] = true
		outcome.Created = append(outcome.Created, t)
		outcome.Summary.Created++

		byTitle[NormalizeTitle(t.Title())] = t
		open = append(open, t)
	}

	return outcome
}

// dedupeBatch collapses mutually duplicate candidates, keeping the highest
// confidence one. Sorting is stable, so equal confidences keep input order
// and the result is deterministic for a fixed input.
func (e *MergeEngine) dedupeBatch(candidates []extraction.Candidate) []extraction.Candidate {
	ordered := make([]extraction.Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Confidence > ordered[j].Confidence
	})

	kept := make([]extraction.Candidate, 0, len(ordered))
	seen := make(map[string]bool)

	for _, candidate := range ordered {
		normalized := NormalizeTitle(candidate.Title)
		if normalized == "" || seen[normalized] {
			continue
		}
		if e.matchesAny(normalized, kept) {
			continue
		}
		seen[normalized] = true
		kept = append(kept, candidate)
	}

	return kept
}

func (e *MergeEngine) matchesAny(normalized string, kept []extraction.Candidate) bool {
	if len(TitleTokens(normalized)) < e.cfg.MinTitleTokens {
		return false
	}
	for _, other := range kept {
		otherNorm := NormalizeTitle(other.Title)
		if len(TitleTokens(otherNorm)) < e.cfg.MinTitleTokens {
			continue
		}
		if Similarity(normalized, otherNorm) >= e.cfg.SimilarityThreshold {
			return true
		}
	}
	return false
}

// bestFuzzyMatch returns the open todo with the highest similarity at or
// above the threshold, or nil.
func (e *MergeEngine) bestFuzzyMatch(normalized string, open []*todo.Todo) *todo.Todo {
	if len(TitleTokens(normalized)) < e.cfg.MinTitleTokens {
		return nil
	}

	var best *todo.Todo
	bestScore := 0.0
	for _, t := range open {
		otherNorm := NormalizeTitle(t.Title())
		if len(TitleTokens(otherNorm)) < e.cfg.MinTitleTokens {
			continue
		}
		score := Similarity(normalized, otherNorm)
		if score >= e.cfg.SimilarityThreshold && score > bestScore {
			best = t
			bestScore = score
		}
	}
	return best
}

// fillGaps copies due date and assignee onto a matched todo when it has
// none of its own. Existing values always win.
func (e *MergeEngine) fillGaps(t *todo.Todo, candidate extraction.Candidate) bool {
	changed := false
	if t.DueAt() == nil && candidate.DueAt != nil {
		t.SetDueAt(candidate.DueAt)
		changed = true
	}
	if t.AssigneeID() == "" && candidate.AssigneeID != "" {
		t.Assign(candidate.AssigneeID, candidate.AssigneeName)
		changed = true
	}
	return changed
}
