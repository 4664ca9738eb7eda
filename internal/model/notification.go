package model

import "time"

// NotificationKind classifies the activity that produced a notification.
type NotificationKind string

const (
	// KindPostAlign: another user aligned with one of your posts.
	KindPostAlign NotificationKind = "post_align"

	// KindPostComment: another user commented on one of your posts.
	KindPostComment NotificationKind = "post_comment"

	// KindCommentAlign: another user aligned with one of your comments.
	KindCommentAlign NotificationKind = "comment_align"

	// KindSyncApproved: a sync request you sent was approved.
	KindSyncApproved NotificationKind = "sync_approved"

	// KindOther covers kinds introduced server-side that this client
	// does not yet render specially.
	KindOther NotificationKind = "other"
)

// NotificationEvent is a single server-owned notification. The server's
// ReadAt field is authoritative for the unread badge; local seen-state
// only governs toast de-duplication.
type NotificationEvent struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// RecipientID is the account this notification was delivered to.
	RecipientID string `json:"recipient_id"`

	// ActorID is the account whose action produced the notification.
	ActorID string `json:"actor_id"`

	// ActorName is the actor's display name, used for toast copy.
	ActorName string `json:"actor_name"`

	// ActorAvatarURL links to the actor's avatar, if any.
	ActorAvatarURL string `json:"actor_avatar_url,omitempty"`

	// Kind classifies the activity (use Kind* constants).
	Kind NotificationKind `json:"kind"`

	// SubjectPostID references the post involved, if any.
	SubjectPostID string `json:"subject_post_id,omitempty"`

	// SubjectCommentID references the comment involved, if any.
	SubjectCommentID string `json:"subject_comment_id,omitempty"`

	// CreatedAt is when the notification was generated server-side.
	CreatedAt time.Time `json:"created_at"`

	// ReadAt is when the user read the notification; nil means unread.
	ReadAt *time.Time `json:"read_at,omitempty"`
}

// Unread reports whether the notification still counts toward the badge.
func (n NotificationEvent) Unread() bool {
	return n.ReadAt == nil
}
