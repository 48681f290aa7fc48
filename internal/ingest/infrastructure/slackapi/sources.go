package slackapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tasklens/tasklens/internal/ingest/domain"
)

// SourceDirectory adapts the Slack client to domain.SourceDirectory.
type SourceDirectory struct {
	client *Client
}

// NewSourceDirectory creates a Slack-backed source directory.
func NewSourceDirectory(client *Client) *SourceDirectory {
	return &SourceDirectory{client: client}
}

type conversationsResponse struct {
	Channels []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		IsIM      bool   `json:"is_im"`
		IsMpim    bool   `json:"is_mpim"`
		IsPrivate bool   `json:"is_private"`
		User      string `json:"user"`
	} `json:"channels"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// Sources lists the conversations the bot user is a member of.
func (d *SourceDirectory) Sources(ctx context.Context) ([]domain.Source, error) {
	var sources []domain.Source
	cursor := ""

	for {
		params := url.Values{}
		params.Set("types", "public_channel,private_channel,im,mpim")
		params.Set("exclude_archived", "true")
		params.Set("limit", "200")
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		body, err := d.client.get(ctx, "users.conversations", params)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceUnavailable, err)
		}

		var resp conversationsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceUnavailable, err)
		}

		for _, ch := range resp.Channels {
			src := domain.Source{ID: ch.ID, Name: ch.Name}
			switch {
			case ch.IsIM:
				src.Kind = domain.SourceKindDM
				src.Name = ch.User
			case ch.IsMpim:
				src.Kind = domain.SourceKindGroup
			case ch.IsPrivate:
				src.Kind = domain.SourceKindPrivate
			default:
				src.Kind = domain.SourceKindChannel
			}
			sources = append(sources, src)
		}

		cursor = resp.ResponseMetadata.NextCursor
		if cursor == "" {
			return sources, nil
		}
	}
}
