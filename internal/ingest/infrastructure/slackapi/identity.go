package slackapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
)

// IdentityResolver resolves Slack user IDs to display names, caching
// lookups for the lifetime of the process.
type IdentityResolver struct {
	client *Client

	mu    sync.RWMutex
	cache map[string]string
}

// NewIdentityResolver creates a Slack-backed identity resolver.
func NewIdentityResolver(client *Client) *IdentityResolver {
	return &IdentityResolver{
		client: client,
		cache:  make(map[string]string),
	}
}

type userInfoResponse struct {
	User struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		RealName string `json:"real_name"`
		Profile  struct {
			DisplayName string `json:"display_name"`
		} `json:"profile"`
	} `json:"user"`
}

// ResolveUser returns the best available display name for a user ID.
func (r *IdentityResolver) ResolveUser(ctx context.Context, userID string) (string, error) {
	r.mu.RLock()
	name, ok := r.cache[userID]
	r.mu.RUnlock()
	if ok {
		return name, nil
	}

	params := url.Values{}
	params.Set("user", userID)

	body, err := r.client.get(ctx, "users.info", params)
	if err != nil {
		return "", fmt.Errorf("resolve user %s: %w", userID, err)
	}

	var resp userInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("resolve user %s: %w", userID, err)
	}

	name = resp.User.Profile.DisplayName
	if name == "" {
		name = resp.User.RealName
	}
	if name == "" {
		name = resp.User.Name
	}
	if name == "" {
		name = userID
	}

	r.mu.Lock()
	r.cache[userID] = name
	r.mu.Unlock()

	return name, nil
}
