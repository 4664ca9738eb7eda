package api

// Wire types for the Perch REST API. Timestamps arrive as RFC 3339
// strings and identifiers as opaque strings; normalization into domain
// types happens at the source boundary, so these structs stay loose and
// tolerate fields the server adds over time.

// errorResponse is the server's standard error envelope.
type errorResponse struct {
	Message string `json:"message"`
}

// WireProfile is an account identity as sent by the server.
type WireProfile struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// WireSession is the response of GET /api/v1/session.
type WireSession struct {
	Account  WireProfile `json:"account"`
	Verified bool        `json:"verified"`
}

// WireNotification is a notification event as sent by the server.
// Older deployments send a flat actor_name; newer ones embed an actor
// object. Both shapes are accepted.
type WireNotification struct {
	ID               string       `json:"id"`
	RecipientID      string       `json:"recipient_id"`
	ActorID          string       `json:"actor_id"`
	ActorName        string       `json:"actor_name"`
	Actor            *WireProfile `json:"actor"`
	Kind             string       `json:"kind"`
	SubjectPostID    string       `json:"subject_post_id"`
	SubjectCommentID string       `json:"subject_comment_id"`
	CreatedAt        string       `json:"created_at"`
	ReadAt           string       `json:"read_at"`
}

// WireSyncRequest is a sync request as sent by the server.
type WireSyncRequest struct {
	ID          string       `json:"id"`
	RequesterID string       `json:"requester_id"`
	Requester   *WireProfile `json:"requester"`
	TargetID    string       `json:"target_id"`
	Status      string       `json:"status"`
	CreatedAt   string       `json:"created_at"`
}

// WireThread is a message thread as sent by the server.
type WireThread struct {
	ID           string        `json:"id"`
	Participants []WireProfile `json:"participants"`
}

// WireMessage is a direct message as sent by the server.
type WireMessage struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	SenderID  string `json:"sender_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// SendMessageRequest is the body of POST /api/v1/threads/{id}/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}
