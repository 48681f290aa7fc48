package slackapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tasklens/tasklens/internal/ingest/domain"
)

// MessageSource adapts the Slack client to domain.MessageSource.
type MessageSource struct {
	client *Client
}

// NewMessageSource creates a Slack-backed message source.
func NewMessageSource(client *Client) *MessageSource {
	return &MessageSource{client: client}
}

type historyResponse struct {
	Messages []struct {
		Type    string `json:"type"`
		Subtype string `json:"subtype"`
		User    string `json:"user"`
		BotID   string `json:"bot_id"`
		Text    string `json:"text"`
		TS      string `json:"ts"`
	} `json:"messages"`
}

// Fetch returns up to limit normalized user messages posted after oldest,
// ordered oldest first. Bot posts, channel events, and empty messages are
// dropped during normalization.
func (s *MessageSource) Fetch(ctx context.Context, src domain.Source, limit int, oldest time.Time) ([]domain.Message, error) {
	params := url.Values{}
	params.Set("channel", src.ID)
	params.Set("limit", strconv.Itoa(limit))
	if !oldest.IsZero() {
		params.Set("oldest", formatSlackTS(oldest))
	}

	body, err := s.client.get(ctx, "conversations.history", params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrSourceUnavailable, src.ID, err)
	}

	var resp historyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrSourceUnavailable, src.ID, err)
	}

	messages := make([]domain.Message, 0, len(resp.Messages))
	// Slack returns newest first; walk backwards for chronological order.
	for i := len(resp.Messages) - 1; i >= 0; i-- {
		raw := resp.Messages[i]
		if raw.Type != "message" || raw.Subtype != "" || raw.BotID != "" || raw.User == "" {
			continue
		}

		text, ok := domain.Normalize(raw.Text)
		if !ok {
			continue
		}

		messages = append(messages, domain.Message{
			Ref:       raw.TS,
			Text:      text,
			AuthorID:  raw.User,
			Timestamp: parseSlackTS(raw.TS),
			Source:    src,
		})
	}

	return messages, nil
}

// parseSlackTS converts a Slack "seconds.fraction" timestamp to time.Time.
func parseSlackTS(ts string) time.Time {
	seconds, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}
	}
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

// formatSlackTS converts a time.Time to Slack's epoch-seconds format.
func formatSlackTS(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', 6, 64)
}
