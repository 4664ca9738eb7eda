package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchapp/perch/internal/api"
)

func newTestSource(t *testing.T, handler http.Handler) *APISource {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, "test-token")
	return NewAPISource(client, "me", zerolog.Nop())
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestFetchNotificationsSkipsMalformedEntries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []api.WireNotification{
			{ID: "n1", Kind: "post_align", CreatedAt: "2026-08-01T12:00:00Z"},
			{Kind: "post_align", CreatedAt: "2026-08-01T12:00:00Z"}, // no id
			{ID: "n3", Kind: "post_align", CreatedAt: "garbage"},    // bad timestamp
		})
	})

	s := newTestSource(t, mux)
	notifications, err := s.FetchNotifications(context.Background())

	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "n1", notifications[0].ID)
}

func TestFetchSyncRequestsFiltersToPendingIncoming(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sync-requests", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []api.WireSyncRequest{
			{ID: "r1", TargetID: "me", Status: "pending", CreatedAt: "2026-08-01T12:00:00Z"},
			{ID: "r2", TargetID: "other", Status: "pending", CreatedAt: "2026-08-01T12:00:00Z"},
			{ID: "r3", TargetID: "me", Status: "approved", CreatedAt: "2026-08-01T12:00:00Z"},
			{TargetID: "me", Status: "pending", CreatedAt: "2026-08-01T12:00:00Z"}, // no id
		})
	})

	s := newTestSource(t, mux)
	requests, err := s.FetchSyncRequests(context.Background())

	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "r1", requests[0].ID)
}

func TestFetchThreadPreviewsIsolatesPerThreadFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/threads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []api.WireThread{
			{ID: "t1", Participants: []api.WireProfile{
				{ID: "me", Handle: "me"},
				{ID: "u2", Handle: "sam", DisplayName: "Sam"},
			}},
			{ID: "t2", Participants: []api.WireProfile{
				{ID: "me", Handle: "me"},
				{ID: "u3", Handle: "robin"},
			}},
		})
	})
	mux.HandleFunc("/api/v1/threads/t1/messages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []api.WireMessage{
			{ID: "m1", SenderID: "u2", Content: "old", CreatedAt: "2026-08-01T10:00:00Z"},
			{ID: "m2", SenderID: "u2", Content: "new", CreatedAt: "2026-08-01T12:00:00Z"},
		})
	})
	mux.HandleFunc("/api/v1/threads/t2/messages", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"shard unavailable"}`, http.StatusInternalServerError)
	})

	s := newTestSource(t, mux)
	previews, err := s.FetchThreadPreviews(context.Background())

	require.NoError(t, err, "one sick thread must not fail the batch")
	require.Len(t, previews, 2)

	byID := map[string]int{previews[0].ThreadID: 0, previews[1].ThreadID: 1}

	healthy := previews[byID["t1"]]
	assert.True(t, healthy.Known)
	require.NotNil(t, healthy.LastMessage)
	assert.Equal(t, "m2", healthy.LastMessage.ID, "newest message wins")
	assert.Equal(t, "t1", healthy.LastMessage.ThreadID)
	assert.Equal(t, "Sam", healthy.OtherParticipant.DisplayName)

	sick := previews[byID["t2"]]
	assert.False(t, sick.Known, "failed preview degrades to unknown")
	assert.Nil(t, sick.LastMessage)
}

func TestFetchThreadPreviewsSkipsMalformedTailMessages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/threads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []api.WireThread{
			{ID: "t1", Participants: []api.WireProfile{{ID: "u2"}}},
		})
	})
	mux.HandleFunc("/api/v1/threads/t1/messages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []api.WireMessage{
			{ID: "m1", SenderID: "u2", CreatedAt: "2026-08-01T10:00:00Z"},
			{ID: "m2", SenderID: "u2", CreatedAt: "broken"},
		})
	})

	s := newTestSource(t, mux)
	previews, err := s.FetchThreadPreviews(context.Background())

	require.NoError(t, err)
	require.Len(t, previews, 1)
	require.NotNil(t, previews[0].LastMessage)
	assert.Equal(t, "m1", previews[0].LastMessage.ID, "newest parseable message wins")
}

func TestFetchNotificationsPropagatesTransportErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"nope"}`, http.StatusInternalServerError)
	})

	s := newTestSource(t, mux)
	_, err := s.FetchNotifications(context.Background())

	assert.Error(t, err)
}
