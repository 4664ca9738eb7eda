package model

import "time"

// SyncStatus is the lifecycle state of a sync (connection) request.
type SyncStatus string

const (
	SyncPending  SyncStatus = "pending"
	SyncApproved SyncStatus = "approved"
	SyncDeclined SyncStatus = "declined"
)

// SyncRequest is a pending connection request between two accounts.
// Only requests incoming to the current account and still pending
// contribute to the unread badge.
type SyncRequest struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// RequesterID is the account that sent the request.
	RequesterID string `json:"requester_id"`

	// RequesterName is the requester's display name.
	RequesterName string `json:"requester_name"`

	// RequesterAvatarURL links to the requester's avatar, if any.
	RequesterAvatarURL string `json:"requester_avatar_url,omitempty"`

	// TargetID is the account the request was sent to.
	TargetID string `json:"target_id"`

	// Status is the request lifecycle state.
	Status SyncStatus `json:"status"`

	// CreatedAt is when the request was created.
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the minimal account identity the client works with.
type Profile struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Session describes the authenticated account as reported by the server.
// The poller only runs while Verified is true.
type Session struct {
	Account  Profile `json:"account"`
	Verified bool    `json:"verified"`
}
