package source

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/perchapp/perch/internal/api"
	"github.com/perchapp/perch/internal/model"
)

// defaultThreadFanout bounds how many per-thread message fetches run at
// once during a preview batch.
const defaultThreadFanout = 8

// APISource implements Fetchers over the Perch REST API.
type APISource struct {
	client  *api.Client
	selfID  string
	fanout  int
	log     zerolog.Logger
	dropped func(category string, count int)
}

// NewAPISource creates a Fetchers implementation for the given client
// and signed-in account id.
func NewAPISource(client *api.Client, selfID string, log zerolog.Logger) *APISource {
	return &APISource{
		client: client,
		selfID: selfID,
		fanout: defaultThreadFanout,
		log:    log.With().Str("component", "source").Logger(),
	}
}

// FetchNotifications returns the account's notifications, dropping
// entries the server sent malformed.
func (s *APISource) FetchNotifications(ctx context.Context) ([]model.NotificationEvent, error) {
	wire, err := s.client.Notifications(ctx)
	if err != nil {
		return nil, err
	}

	notifications := make([]model.NotificationEvent, 0, len(wire))
	dropped := 0
	for _, w := range wire {
		n, ok := normalizeNotification(w)
		if !ok {
			dropped++
			continue
		}
		notifications = append(notifications, n)
	}
	if dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Msg("malformed notifications skipped")
	}

	return notifications, nil
}

// FetchSyncRequests returns pending incoming sync requests. The server
// already filters by direction and status; the client re-checks both so
// the badge never overcounts on a misbehaving deployment.
func (s *APISource) FetchSyncRequests(ctx context.Context) ([]model.SyncRequest, error) {
	wire, err := s.client.SyncRequests(ctx)
	if err != nil {
		return nil, err
	}

	requests := make([]model.SyncRequest, 0, len(wire))
	dropped := 0
	for _, w := range wire {
		r, ok := normalizeSyncRequest(w)
		if !ok {
			dropped++
			continue
		}
		if r.Status != model.SyncPending || r.TargetID != s.selfID {
			continue
		}
		requests = append(requests, r)
	}
	if dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Msg("malformed sync requests skipped")
	}

	return requests, nil
}

// FetchThreadPreviews lists the account's threads and fetches each
// thread's messages in a bounded parallel batch, taking the newest
// message as the preview. A thread whose fetch fails degrades to an
// unknown preview instead of failing the batch.
func (s *APISource) FetchThreadPreviews(ctx context.Context) ([]model.ThreadPreview, error) {
	threads, err := s.client.Threads(ctx)
	if err != nil {
		return nil, err
	}

	previews := make([]model.ThreadPreview, len(threads))
	sem := make(chan struct{}, s.fanout)

	var wg sync.WaitGroup
	for i, thread := range threads {
		wg.Add(1)
		go func(i int, thread api.WireThread) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			previews[i] = s.previewThread(ctx, thread)
		}(i, thread)
	}
	wg.Wait()

	return previews, nil
}

// previewThread builds the preview for a single thread.
func (s *APISource) previewThread(ctx context.Context, thread api.WireThread) model.ThreadPreview {
	preview := model.ThreadPreview{
		ThreadID:         thread.ID,
		OtherParticipant: s.otherParticipant(thread),
	}

	wire, err := s.client.ThreadMessages(ctx, thread.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("thread", thread.ID).Msg("thread preview fetch failed")
		return preview
	}

	preview.Known = true

	// Messages arrive oldest first; the newest parseable one wins.
	for i := len(wire) - 1; i >= 0; i-- {
		if m, ok := normalizeMessage(wire[i]); ok {
			if m.ThreadID == "" {
				m.ThreadID = thread.ID
			}
			preview.LastMessage = &m
			break
		}
	}

	return preview
}

// otherParticipant picks the first participant that is not the current
// account for display in list views.
func (s *APISource) otherParticipant(thread api.WireThread) model.Profile {
	for _, p := range thread.Participants {
		if p.ID != s.selfID {
			return normalizeProfile(p)
		}
	}
	return model.Profile{}
}
