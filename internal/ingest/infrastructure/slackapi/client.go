// Package slackapi implements the ingest collaborator interfaces against the
// Slack Web API.
package slackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
)

const defaultBaseURL = "https://slack.com/api"

// Client is a thin Slack Web API client with a circuit breaker around all
// calls.
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// ClientConfig configures the Slack client.
type ClientConfig struct {
	Token   string
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewClient creates a new Slack Web API client.
func NewClient(cfg ClientConfig) *Client {
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
		Name:        "slack-api",
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

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		token:      cfg.Token,
		baseURL:    cfg.BaseURL,
		breaker:    breaker,
		logger:     cfg.Logger,
	}
}

// apiEnvelope is the common part of every Slack Web API response.
type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// get performs a GET call with query parameters and returns the raw body.
func (c *Client) get(ctx context.Context, method string, params url.Values) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		endpoint := c.baseURL + "/" + method
		if len(params) > 0 {
			endpoint += "?" + params.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		return c.do(req, method)
	})
}

// post performs a JSON POST call and returns the raw body.
func (c *Client) post(ctx context.Context, method string, body any) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}

		endpoint := c.baseURL + "/" + method
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json; charset=utf-8")

		return c.do(req, method)
	})
}

func (c *Client) do(req *http.Request, method string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("slack %s: read response: %w", method, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("slack %s: unexpected status %d", method, resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("slack %s: decode response: %w", method, err)
	}
	if !envelope.OK {
		return nil, fmt.Errorf("slack %s: %s", method, envelope.Error)
	}

	return body, nil
}
