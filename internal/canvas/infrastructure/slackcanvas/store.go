// Package slackcanvas implements the remote canvas store on the Slack
// canvas API.
package slackcanvas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tasklens/tasklens/internal/todos/domain/todo"
)

const defaultBaseURL = "https://slack.com/api"

// Config configures the canvas store.
type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Store implements domain.RemoteCanvas against the Slack Web API.
type Store struct {
	httpClient *http.Client
	token      string
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// NewStore creates a Slack canvas store.
func NewStore(cfg Config) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	logger := cfg.Logger
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "slack-canvas",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Store{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		token:      cfg.Token,
		baseURL:    cfg.BaseURL,
		breaker:    breaker,
		logger:     cfg.Logger,
	}
}

type documentContent struct {
	Type     string `json:"type"`
	Markdown string `json:"markdown"`
}

func markdownContent(body string) documentContent {
	return documentContent{Type: "markdown", Markdown: body}
}

// Create makes a canvas in the scope's conversation and returns its ID.
// Personal scopes get a canvas in the member's DM conversation.
func (s *Store) Create(ctx context.Context, scope todo.Scope, title, body string) (string, error) {
	channelID := scope.ID
	if scope.Kind == todo.ScopeKindPersonal {
		dm, err := s.openDM(ctx, scope.ID)
		if err != nil {
			return "", err
		}
		channelID = dm
	}

	resp, err := s.post(ctx, "conversations.canvases.create", map[string]any{
		"channel_id":       channelID,
		"document_content": markdownContent(body),
	})
	if err != nil {
		return "", err
	}

	var result struct {
		CanvasID string `json:"canvas_id"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", fmt.Errorf("canvas create: decode response: %w", err)
	}
	if result.CanvasID == "" {
		return "", fmt.Errorf("canvas create: empty canvas_id")
	}
	return result.CanvasID, nil
}

// Replace swaps the canvas's entire content.
func (s *Store) Replace(ctx context.Context, canvasID, body string) error {
	_, err := s.post(ctx, "canvases.edit", map[string]any{
		"canvas_id": canvasID,
		"changes": []map[string]any{
			{
				"operation":        "replace",
				"document_content": markdownContent(body),
			},
		},
	})
	return err
}

// Delete removes the canvas.
func (s *Store) Delete(ctx context.Context, canvasID string) error {
	_, err := s.post(ctx, "canvases.delete", map[string]any{
		"canvas_id": canvasID,
	})
	return err
}

// openDM resolves the DM conversation with a workspace member.
func (s *Store) openDM(ctx context.Context, userID string) (string, error) {
	resp, err := s.post(ctx, "conversations.open", map[string]any{
		"users": userID,
	})
	if err != nil {
		return "", err
	}

	var result struct {
		Channel struct {
			ID string `json:"id"`
		} `json:"channel"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", fmt.Errorf("conversations.open: decode response: %w", err)
	}
	if result.Channel.ID == "" {
		return "", fmt.Errorf("conversations.open: empty channel id")
	}
	return result.Channel.ID, nil
}

func (s *Store) post(ctx context.Context, method string, body map[string]any) ([]byte, error) {
	return s.breaker.Execute(func() ([]byte, error) {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+method, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+s.token)
		req.Header.Set("Content-Type", "application/json; charset=utf-8")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("slack %s: %w", method, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("slack %s: read response: %w", method, err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("slack %s: unexpected status %d", method, resp.StatusCode)
		}

		var envelope struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("slack %s: decode response: %w", method, err)
		}
		if !envelope.OK {
			return nil, fmt.Errorf("slack %s: %s", method, envelope.Error)
		}

		return raw, nil
	})
}
