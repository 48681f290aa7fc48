package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tasklens/tasklens/internal/extraction/domain"
	ingestdomain "github.com/tasklens/tasklens/internal/ingest/domain"
)

const systemPrompt = `You are a task extraction assistant. You receive a numbered list of chat messages. For every message decide whether it describes an actionable work item.

Reply with ONLY a JSON array. One object per message that describes a task:
[{"message_index": <number from the list>, "is_task": true, "confidence": <0.0-1.0>, "title": "<short imperative summary>", "task_type": "<bug|feature|meeting|review|deadline|urgent|general>", "priority": "<urgent|high|medium|low>", "due_hint": "<due phrase or empty>", "assignee_hint": "<mention or empty>"}]

Skip messages that are not tasks. Do not invent tasks.`

// signalForPriority maps the oracle's priority word to a numeric signal.
var signalForPriority = map[string]float64{
	"urgent": 0.95,
	"high":   0.75,
	"medium": 0.50,
	"low":    0.25,
}

// ClassifierConfig tunes the classification adapter.
type ClassifierConfig struct {
	// ChannelThreshold is the minimum confidence for channel sources.
	ChannelThreshold float64
	// DMThreshold is the minimum confidence for direct conversations,
	// stricter because casual chat dominates there.
	DMThreshold float64
	// Timeout bounds a single oracle call.
	Timeout time.Duration
}

// DefaultClassifierConfig returns the standard thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		ChannelThreshold: 0.60,
		DMThreshold:      0.70,
		Timeout:          30 * time.Second,
	}
}

// Result aggregates one batch classification.
type Result struct {
	Candidates []domain.Candidate
	// Considered counts messages sent to the oracle.
	Considered int
	// Prefiltered counts messages skipped locally before the oracle call.
	Prefiltered int
	// Malformed counts oracle records dropped for missing required fields.
	Malformed int
	// BelowThreshold counts accepted records under the scope's confidence bar.
	BelowThreshold int
}

// Classifier turns message batches into task candidates via the oracle.
type Classifier struct {
	oracle   domain.Oracle
	resolver ingestdomain.IdentityResolver
	cfg      ClassifierConfig
	logger   *slog.Logger
}

// NewClassifier creates a classifier. The resolver may be nil; assignees
// then keep their raw IDs.
func NewClassifier(oracle domain.Oracle, resolver ingestdomain.IdentityResolver, cfg ClassifierConfig, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		oracle:   oracle,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
	}
}

// Classify classifies one batch of messages from a single source. An empty
// batch returns an empty result without calling the oracle.
func (c *Classifier) Classify(ctx context.Context, src ingestdomain.Source, messages []ingestdomain.Message) (Result, error) {
	result := Result{Candidates: make([]domain.Candidate, 0)}

	batch := make([]ingestdomain.Message, 0, len(messages))
	for _, msg := range messages {
		if !LooksLikeTask(msg.Text) {
			result.Prefiltered++
			continue
		}
		batch = append(batch, msg)
	}
	result.Considered = len(batch)
	if len(batch) == 0 {
		return result, nil
	}

	callCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	reply, err := c.oracle.Complete(callCtx, systemPrompt, buildPrompt(batch))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", domain.ErrClassificationUnavailable, err)
	}

	threshold := c.cfg.ChannelThreshold
	if src.Kind.IsDirect() {
		threshold = c.cfg.DMThreshold
	}

	now := time.Now().UTC()
	for _, record := range extractRecords(reply) {
		candidate, err := c.buildCandidate(ctx, record, batch, now)
		if err != nil {
			result.Malformed++
			c.logger.Debug("dropped oracle record",
				"source", src.ID,
				"error", err,
			)
			continue
		}
		if candidate == nil {
			continue // explicitly not a task
		}
		if candidate.Confidence < threshold {
			result.BelowThreshold++
			continue
		}
		result.Candidates = append(result.Candidates, *candidate)
	}

	return result, nil
}

// buildPrompt renders the numbered batch the oracle judges.
func buildPrompt(batch []ingestdomain.Message) string {
	var b strings.Builder
	b.WriteString("Messages:\n")
	for i, msg := range batch {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i, msg.AuthorID, msg.Text)
	}
	return b.String()
}

// extractRecords pulls the outermost JSON array out of the oracle reply,
// tolerating markdown fences and surrounding prose.
func extractRecords(reply string) []gjson.Result {
	reply = strings.TrimSpace(reply)
	if fenced := strings.Index(reply, "```"); fenced >= 0 {
		reply = strings.TrimPrefix(reply[fenced+3:], "json")
		if end := strings.Index(reply, "```"); end >= 0 {
			reply = reply[:end]
		}
	}

	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil
	}

	parsed := gjson.Parse(reply[start : end+1])
	if !parsed.IsArray() {
		return nil
	}
	return parsed.Array()
}

// buildCandidate validates and clamps one oracle record. Returns (nil, nil)
// for explicit non-tasks and an error for malformed records.
func (c *Classifier) buildCandidate(ctx context.Context, record gjson.Result, batch []ingestdomain.Message, now time.Time) (*domain.Candidate, error) {
	if !record.IsObject() {
		return nil, fmt.Errorf("%w: not an object", domain.ErrMalformedCandidate)
	}

	isTask := record.Get("is_task")
	if !isTask.Exists() {
		return nil, fmt.Errorf("%w: missing is_task", domain.ErrMalformedCandidate)
	}
	if !isTask.Bool() {
		return nil, nil
	}

	title := strings.TrimSpace(record.Get("title").String())
	if title == "" {
		return nil, fmt.Errorf("%w: missing title", domain.ErrMalformedCandidate)
	}

	index := record.Get("message_index")
	if !index.Exists() || index.Int() < 0 || index.Int() >= int64(len(batch)) {
		return nil, fmt.Errorf("%w: message_index out of range", domain.ErrMalformedCandidate)
	}
	msg := batch[index.Int()]

	signal, ok := signalForPriority[strings.ToLower(record.Get("priority").String())]
	if !ok {
		signal = signalForPriority["medium"]
	}

	candidate := &domain.Candidate{
		Title:      title,
		TaskType:   record.Get("task_type").String(),
		Signal:     signal,
		Confidence: domain.ClampUnit(record.Get("confidence").Float()),
		SourceID:   msg.Source.ID,
		MessageRef: msg.Ref,
	}

	if due := ResolveDueHint(record.Get("due_hint").String(), now); due != nil {
		candidate.DueAt = due
	} else if due := ExtractDueFromText(msg.Text, now); due != nil {
		candidate.DueAt = due
	}

	assignee := ExtractAssigneeID(record.Get("assignee_hint").String())
	if assignee == "" {
		assignee = ExtractAssigneeID(msg.Text)
	}
	if assignee != "" {
		candidate.AssigneeID = assignee
		candidate.AssigneeName = assignee
		if c.resolver != nil {
			if name, err := c.resolver.ResolveUser(ctx, assignee); err == nil {
				candidate.AssigneeName = name
			}
		}
	}

	return candidate, nil
}
