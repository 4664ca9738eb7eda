package model

import "time"

// Toast is a short-lived notification surfaced once per newly seen item.
// Toasts live in memory only and are never persisted.
type Toast struct {
	// ID is a client-generated identifier used for dismissal.
	ID string `json:"id"`

	// Title is the headline line, usually the actor's display name.
	Title string `json:"title"`

	// Detail is the activity description line.
	Detail string `json:"detail"`

	// AvatarURL links to the actor's avatar, if any.
	AvatarURL string `json:"avatar_url,omitempty"`

	// SubjectProfileID is the profile a tap/selection should open.
	SubjectProfileID string `json:"subject_profile_id,omitempty"`

	// CreatedAt is when the toast was pushed.
	CreatedAt time.Time `json:"created_at"`
}

// Badge is the single unread count shared by every UI surface, with its
// per-source contributions kept for display and testing.
type Badge struct {
	// Notifications is the count of unread notification events.
	Notifications int `json:"notifications"`

	// SyncRequests is the count of pending incoming sync requests.
	SyncRequests int `json:"sync_requests"`

	// Threads is the count of threads with an unread last message.
	Threads int `json:"threads"`

	// UnreadThreadIDs flags which threads are unread this pass.
	UnreadThreadIDs map[string]bool `json:"unread_thread_ids,omitempty"`
}

// Total is the badge value rendered across all UI entry points.
func (b Badge) Total() int {
	return b.Notifications + b.SyncRequests + b.Threads
}
