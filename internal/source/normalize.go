package source

import (
	"time"

	"github.com/perchapp/perch/internal/api"
	"github.com/perchapp/perch/internal/model"
)

// The server's payloads drift: older deployments flatten actor fields,
// newer ones nest profile objects, and unknown notification kinds
// appear ahead of client releases. Normalization accepts both shapes,
// tags unknown kinds as KindOther, and drops entries that are missing
// an id or a parseable timestamp instead of raising.

// knownKinds maps wire kind strings to their domain constants.
var knownKinds = map[string]model.NotificationKind{
	string(model.KindPostAlign):    model.KindPostAlign,
	string(model.KindPostComment):  model.KindPostComment,
	string(model.KindCommentAlign): model.KindCommentAlign,
	string(model.KindSyncApproved): model.KindSyncApproved,
}

// parseTime parses an RFC 3339 timestamp, reporting ok=false for empty
// or malformed values.
func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// normalizeNotification converts a wire notification into its domain
// form. ok is false for entries that cannot be trusted.
func normalizeNotification(w api.WireNotification) (model.NotificationEvent, bool) {
	createdAt, ok := parseTime(w.CreatedAt)
	if w.ID == "" || !ok {
		return model.NotificationEvent{}, false
	}

	kind, known := knownKinds[w.Kind]
	if !known {
		kind = model.KindOther
	}

	n := model.NotificationEvent{
		ID:               w.ID,
		RecipientID:      w.RecipientID,
		ActorID:          w.ActorID,
		ActorName:        w.ActorName,
		Kind:             kind,
		SubjectPostID:    w.SubjectPostID,
		SubjectCommentID: w.SubjectCommentID,
		CreatedAt:        createdAt,
	}

	// Nested actor object wins over the flat fields when present.
	if w.Actor != nil {
		if w.Actor.ID != "" {
			n.ActorID = w.Actor.ID
		}
		if w.Actor.DisplayName != "" {
			n.ActorName = w.Actor.DisplayName
		}
		n.ActorAvatarURL = w.Actor.AvatarURL
	}

	if readAt, ok := parseTime(w.ReadAt); ok {
		n.ReadAt = &readAt
	}

	return n, true
}

// normalizeSyncRequest converts a wire sync request into its domain form.
func normalizeSyncRequest(w api.WireSyncRequest) (model.SyncRequest, bool) {
	createdAt, ok := parseTime(w.CreatedAt)
	if w.ID == "" || !ok {
		return model.SyncRequest{}, false
	}

	r := model.SyncRequest{
		ID:          w.ID,
		RequesterID: w.RequesterID,
		TargetID:    w.TargetID,
		Status:      model.SyncStatus(w.Status),
		CreatedAt:   createdAt,
	}
	if r.Status == "" {
		r.Status = model.SyncPending
	}

	if w.Requester != nil {
		if w.Requester.ID != "" {
			r.RequesterID = w.Requester.ID
		}
		r.RequesterName = w.Requester.DisplayName
		r.RequesterAvatarURL = w.Requester.AvatarURL
	}

	return r, true
}

// normalizeMessage converts a wire message into its domain form.
func normalizeMessage(w api.WireMessage) (model.Message, bool) {
	createdAt, ok := parseTime(w.CreatedAt)
	if w.ID == "" || !ok {
		return model.Message{}, false
	}

	return model.Message{
		ID:        w.ID,
		ThreadID:  w.ThreadID,
		SenderID:  w.SenderID,
		Content:   w.Content,
		CreatedAt: createdAt,
	}, true
}

// normalizeProfile converts a wire profile into its domain form.
func normalizeProfile(w api.WireProfile) model.Profile {
	return model.Profile{
		ID:          w.ID,
		Handle:      w.Handle,
		DisplayName: w.DisplayName,
		AvatarURL:   w.AvatarURL,
	}
}
