package slackapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklens/tasklens/internal/ingest/domain"
	"github.com/tasklens/tasklens/internal/ingest/infrastructure/slackapi"
)

func newTestClient(t *testing.T, handler http.Handler) (*slackapi.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := slackapi.NewClient(slackapi.ClientConfig{
		Token:   "xoxb-test",
		BaseURL: server.URL,
	})
	return client, server
}

func TestFetch_NormalizesAndReversesHistory(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations.history", r.URL.Path)
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		assert.Equal(t, "C123", r.URL.Query().Get("channel"))

		// Newest first, the way Slack returns history.
		w.Write([]byte(`{
			"ok": true,
			"messages": [
				{"type": "message", "user": "U2", "text": "second message here", "ts": "1755600002.000200"},
				{"type": "message", "subtype": "channel_join", "user": "U9", "text": "joined", "ts": "1755600001.500000"},
				{"type": "message", "bot_id": "B1", "text": "bot noise", "ts": "1755600001.200000"},
				{"type": "message", "user": "U1", "text": "first message here", "ts": "1755600001.000100"}
			]
		}`))
	}))

	src := domain.Source{ID: "C123", Kind: domain.SourceKindChannel}
	messages, err := slackapi.NewMessageSource(client).Fetch(context.Background(), src, 50, time.Time{})

	require.NoError(t, err)
	require.Len(t, messages, 2, "bot posts and channel events are dropped")
	assert.Equal(t, "first message here", messages[0].Text)
	assert.Equal(t, "second message here", messages[1].Text)
	assert.Equal(t, "U1", messages[0].AuthorID)
	assert.Equal(t, "1755600001.000100", messages[0].Ref)
	assert.True(t, messages[0].Timestamp.Before(messages[1].Timestamp))
}

func TestFetch_ErrorEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
	}))

	src := domain.Source{ID: "C404", Kind: domain.SourceKindChannel}
	_, err := slackapi.NewMessageSource(client).Fetch(context.Background(), src, 50, time.Time{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestFetch_PassesOldestCutoff(t *testing.T) {
	var gotOldest string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOldest = r.URL.Query().Get("oldest")
		w.Write([]byte(`{"ok": true, "messages": []}`))
	}))

	src := domain.Source{ID: "C123", Kind: domain.SourceKindChannel}
	oldest := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	_, err := slackapi.NewMessageSource(client).Fetch(context.Background(), src, 50, oldest)

	require.NoError(t, err)
	assert.Equal(t, "1786492800.000000", gotOldest)
}

func TestSources_PaginatesAndClassifiesKinds(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users.conversations", r.URL.Path)
		if calls.Add(1) == 1 {
			assert.Empty(t, r.URL.Query().Get("cursor"))
			w.Write([]byte(`{
				"ok": true,
				"channels": [
					{"id": "C1", "name": "general"},
					{"id": "G1", "name": "secret", "is_private": true}
				],
				"response_metadata": {"next_cursor": "page2"}
			}`))
			return
		}
		assert.Equal(t, "page2", r.URL.Query().Get("cursor"))
		w.Write([]byte(`{
			"ok": true,
			"channels": [
				{"id": "D1", "is_im": true, "user": "U42"},
				{"id": "G2", "is_mpim": true, "name": "trio"}
			]
		}`))
	}))

	sources, err := slackapi.NewSourceDirectory(client).Sources(context.Background())

	require.NoError(t, err)
	require.Len(t, sources, 4)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, domain.SourceKindChannel, sources[0].Kind)
	assert.Equal(t, domain.SourceKindPrivate, sources[1].Kind)
	assert.Equal(t, domain.SourceKindDM, sources[2].Kind)
	assert.Equal(t, "U42", sources[2].Name, "a DM is named after its counterpart")
	assert.Equal(t, domain.SourceKindGroup, sources[3].Kind)
}

func TestResolveUser_PrefersDisplayNameAndCaches(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/users.info", r.URL.Path)
		assert.Equal(t, "U42", r.URL.Query().Get("user"))
		w.Write([]byte(`{
			"ok": true,
			"user": {"id": "U42", "name": "sam.r", "real_name": "Sam Rivera", "profile": {"display_name": "sam"}}
		}`))
	}))

	resolver := slackapi.NewIdentityResolver(client)

	name, err := resolver.ResolveUser(context.Background(), "U42")
	require.NoError(t, err)
	assert.Equal(t, "sam", name)

	name, err = resolver.ResolveUser(context.Background(), "U42")
	require.NoError(t, err)
	assert.Equal(t, "sam", name)
	assert.Equal(t, int32(1), calls.Load(), "second lookup is served from cache")
}

func TestResolveUser_FallsBackThroughNames(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ok": true, "user": {"id": "U7", "real_name": "Kim Lee", "profile": {"display_name": ""}}}`))
	}))

	name, err := slackapi.NewIdentityResolver(client).ResolveUser(context.Background(), "U7")

	require.NoError(t, err)
	assert.Equal(t, "Kim Lee", name)
}
