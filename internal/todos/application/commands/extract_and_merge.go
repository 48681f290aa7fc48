package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	extraction "github.com/tasklens/tasklens/internal/extraction/domain"
	"github.com/tasklens/tasklens/internal/locks"
	"github.com/tasklens/tasklens/internal/shared/application"
	"github.com/tasklens/tasklens/internal/shared/infrastructure/eventbus"
	"github.com/tasklens/tasklens/internal/todos/application/services"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
	"github.com/tasklens/tasklens/pkg/observability"
)

// ExtractAndMergeCommand folds a batch of classified candidates into one
// scope's todo set.
type ExtractAndMergeCommand struct {
	Scope      todo.Scope
	Candidates []extraction.Candidate
}

// ExtractAndMergeResult reports what the merge changed.
type ExtractAndMergeResult struct {
	Summary services.ChangeSummary
}

// ExtractAndMergeHandler applies merges atomically under a per-scope lock.
type ExtractAndMergeHandler struct {
	repo      todo.Repository
	uow       application.UnitOfWork
	engine    *services.MergeEngine
	locker    locks.ScopeLocker
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewExtractAndMergeHandler creates the handler.
func NewExtractAndMergeHandler(
	repo todo.Repository,
	uow application.UnitOfWork,
	engine *services.MergeEngine,
	locker locks.ScopeLocker,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *ExtractAndMergeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractAndMergeHandler{
		repo:      repo,
		uow:       uow,
		engine:    engine,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle merges the candidates. Either every change lands or none does; a
// persistence failure mid-batch rolls the whole batch back. An empty batch
// returns an empty summary without touching storage.
func (h *ExtractAndMergeHandler) Handle(ctx context.Context, cmd ExtractAndMergeCommand) (*ExtractAndMergeResult, error) {
	if err := cmd.Scope.Validate(); err != nil {
		return nil, err
	}
	if len(cmd.Candidates) == 0 {
		return &ExtractAndMergeResult{}, nil
	}

	release, err := h.locker.Lock(ctx, cmd.Scope.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to lock scope %s: %w", cmd.Scope.Key(), err)
	}
	defer release()

	start := time.Now()
	var outcome services.MergeOutcome

	err = application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		existing, err := h.repo.FindByScope(txCtx, cmd.Scope)
		if err != nil {
			return fmt.Errorf("failed to load todo set: %w", err)
		}

		outcome = h.engine.Merge(cmd.Scope, existing, cmd.Candidates)

		for _, t := range outcome.Created {
			if err := h.repo.Save(txCtx, t); err != nil {
				return fmt.Errorf("failed to save new todo: %w", err)
			}
		}
		for _, t := range outcome.Updated {
			if err := h.repo.Save(txCtx, t); err != nil {
				return fmt.Errorf("failed to save merged todo: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, todo.ErrOptimisticLock) {
			return nil, fmt.Errorf("%w: %s", todo.ErrMergeConflict, err)
		}
		return nil, err
	}

	h.logger.InfoContext(ctx, "merge applied",
		observability.ScopeKey, cmd.Scope.Key(),
		"created", outcome.Summary.Created,
		"updated", outcome.Summary.Updated,
		"unchanged", outcome.Summary.Unchanged,
		observability.DurationKey, time.Since(start).Milliseconds(),
	)

	if outcome.Summary.Created > 0 || outcome.Summary.Updated > 0 {
		publishTodosChanged(ctx, h.publisher, cmd.Scope, h.logger)
	}

	return &ExtractAndMergeResult{Summary: outcome.Summary}, nil
}
