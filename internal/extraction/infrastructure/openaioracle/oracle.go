// Package openaioracle backs the classification oracle with the OpenAI
// chat completions API.
package openaioracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sony/gobreaker/v2"
)

// Config configures the oracle.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *slog.Logger
}

// Oracle implements extraction's Oracle interface via chat completions.
type Oracle struct {
	client  openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// New creates a new OpenAI-backed oracle.
func New(cfg Config) *Oracle {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	logger := cfg.Logger
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "classification-oracle",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Oracle{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		breaker: breaker,
		logger:  cfg.Logger,
	}
}

// Complete sends one prompt and returns the raw reply text.
func (o *Oracle) Complete(ctx context.Context, system, prompt string) (string, error) {
	return o.breaker.Execute(func() (string, error) {
		start := time.Now()

		completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(o.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(prompt),
			},
			Temperature: openai.Float(0),
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("chat completion: empty response")
		}

		o.logger.Debug("oracle call completed",
			"model", o.model,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		return completion.Choices[0].Message.Content, nil
	})
}
