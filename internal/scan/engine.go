// Package scan orchestrates the fetch-classify-merge pipeline across a
// workspace's conversations.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	extraction "github.com/tasklens/tasklens/internal/extraction/domain"
	extractionservices "github.com/tasklens/tasklens/internal/extraction/services"
	ingestdomain "github.com/tasklens/tasklens/internal/ingest/domain"
	"github.com/tasklens/tasklens/internal/todos/application/commands"
	"github.com/tasklens/tasklens/internal/todos/application/services"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/pkg/observability"
)

// Config tunes the scan pipeline.
type Config struct {
	// Workers bounds concurrent fetch+classify units.
	Workers int
	// ChannelBatchLimit caps messages fetched per channel.
	ChannelBatchLimit int
	// DMBatchLimit caps messages fetched per direct conversation.
	DMBatchLimit int
	// Lookback bounds how far back messages are fetched.
	Lookback time.Duration
}

// DefaultConfig returns the standard scan settings.
func DefaultConfig() Config {
	return Config{
		Workers:           4,
		ChannelBatchLimit: 50,
		DMBatchLimit:      30,
		Lookback:          7 * 24 * time.Hour,
	}
}

// Classifier classifies one source's message batch.
type Classifier interface {
	Classify(ctx context.Context, src ingestdomain.Source, messages []ingestdomain.Message) (extractionservices.Result, error)
}

// Merger folds candidates into a scope's todo set.
type Merger interface {
	Handle(ctx context.Context, cmd commands.ExtractAndMergeCommand) (*commands.ExtractAndMergeResult, error)
}

// SkippedSource records a conversation the scan could not process.
type SkippedSource struct {
	SourceID string `json:"source_id"`
	Reason   string `json:"reason"`
}

// Report aggregates one scan run.
type Report struct {
	Scope           todo.Scope
	StartedAt       time.Time
	FinishedAt      time.Time
	SourcesScanned  int
	Skipped         []SkippedSource
	MessagesFetched int
	Prefiltered     int
	Malformed       int
	CandidatesFound int
	Summary         services.ChangeSummary
}

// Engine runs scans.
type Engine struct {
	source     ingestdomain.MessageSource
	directory  ingestdomain.SourceDirectory
	classifier Classifier
	merger     Merger
	cfg        Config
	logger     *slog.Logger
}

// NewEngine creates a scan engine.
func NewEngine(
	source ingestdomain.MessageSource,
	directory ingestdomain.SourceDirectory,
	classifier Classifier,
	merger Merger,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source:     source,
		directory:  directory,
		classifier: classifier,
		merger:     merger,
		cfg:        cfg,
		logger:     logger,
	}
}

// ExtractAndMerge classifies an already-fetched message batch and merges
// the results into the scope's todo set.
func (e *Engine) ExtractAndMerge(ctx context.Context, scope todo.Scope, messages []ingestdomain.Message) (*commands.ExtractAndMergeResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return &commands.ExtractAndMergeResult{}, nil
	}

	src := ingestdomain.Source{ID: scope.ID, Kind: ingestdomain.SourceKindChannel}
	if scope.Kind == todo.ScopeKindPersonal {
		src.Kind = ingestdomain.SourceKindDM
	}

	result, err := e.classifier.Classify(ctx, src, messages)
	if err != nil {
		return nil, err
	}

	return e.merger.Handle(ctx, commands.ExtractAndMergeCommand{
		Scope:      scope,
		Candidates: result.Candidates,
	})
}

// ScanChannel scans a single channel into its channel scope.
func (e *Engine) ScanChannel(ctx context.Context, channelID string) (*Report, error) {
	scope := todo.NewChannelScope(channelID)
	src := ingestdomain.Source{ID: channelID, Kind: ingestdomain.SourceKindChannel}
	return e.run(ctx, scope, []ingestdomain.Source{src})
}

// ScanPersonal scans every conversation the workspace member can see into
// their personal scope.
func (e *Engine) ScanPersonal(ctx context.Context, userID string) (*Report, error) {
	scope := todo.NewPersonalScope(userID)

	sources, err := e.directory.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate sources: %w", err)
	}

	return e.run(ctx, scope, sources)
}

// sourceOutcome is one fetch+classify unit's result, indexed to keep the
// final candidate order independent of scheduling.
type sourceOutcome struct {
	result  extractionservices.Result
	fetched int
	skipped *SkippedSource
}

// run fetches and classifies all sources with bounded parallelism, then
// merges every candidate into the scope in one batch. A failing source is
// recorded and skipped; it never aborts the scan. Cancelling the context
// stops scheduling new sources while in-flight units finish.
func (e *Engine) run(ctx context.Context, scope todo.Scope, sources []ingestdomain.Source) (*Report, error) {
	report := &Report{
		Scope:     scope,
		StartedAt: time.Now().UTC(),
	}

	oldest := time.Time{}
	if e.cfg.Lookback > 0 {
		oldest = report.StartedAt.Add(-e.cfg.Lookback)
	}

	outcomes := make([]sourceOutcome, len(sources))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for i, src := range sources {
		if gctx.Err() != nil {
			mu.Lock()
			outcomes[i].skipped = &SkippedSource{SourceID: src.ID, Reason: "scan cancelled"}
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			outcome := e.scanSource(gctx, src, oldest)
			mu.Lock()
			outcomes[i] = outcome
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var allCandidates []extraction.Candidate
	for _, outcome := range outcomes {
		report.MessagesFetched += outcome.fetched
		if outcome.skipped != nil {
			report.Skipped = append(report.Skipped, *outcome.skipped)
			continue
		}
		report.SourcesScanned++
		report.Prefiltered += outcome.result.Prefiltered
		report.Malformed += outcome.result.Malformed
		allCandidates = append(allCandidates, outcome.result.Candidates...)
	}
	report.CandidatesFound = len(allCandidates)

	result, err := e.merger.Handle(ctx, commands.ExtractAndMergeCommand{
		Scope:      scope,
		Candidates: allCandidates,
	})
	if err != nil {
		return nil, err
	}
	report.Summary = result.Summary
	report.FinishedAt = time.Now().UTC()

	e.logger.InfoContext(ctx, "scan completed",
		observability.ScopeKey, scope.Key(),
		"sources", report.SourcesScanned,
		"skipped", len(report.Skipped),
		"candidates", report.CandidatesFound,
		"created", report.Summary.Created,
		"updated", report.Summary.Updated,
		observability.DurationKey, report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)

	return report, nil
}

// scanSource fetches and classifies one conversation.
func (e *Engine) scanSource(ctx context.Context, src ingestdomain.Source, oldest time.Time) sourceOutcome {
	limit := e.cfg.ChannelBatchLimit
	if src.Kind.IsDirect() {
		limit = e.cfg.DMBatchLimit
	}

	messages, err := e.source.Fetch(ctx, src, limit, oldest)
	if err != nil {
		e.logger.WarnContext(ctx, "source fetch failed",
			"source", src.ID,
			"error", err,
		)
		return sourceOutcome{skipped: &SkippedSource{SourceID: src.ID, Reason: err.Error()}}
	}

	result, err := e.classifier.Classify(ctx, src, messages)
	if err != nil {
		e.logger.WarnContext(ctx, "source classification failed",
			"source", src.ID,
			"error", err,
		)
		return sourceOutcome{
			fetched: len(messages),
			skipped: &SkippedSource{SourceID: src.ID, Reason: err.Error()},
		}
	}

	return sourceOutcome{result: result, fetched: len(messages)}
}
