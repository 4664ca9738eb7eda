package model

import "time"

// Thread is a direct-message conversation between two or more accounts.
type Thread struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// ParticipantIDs lists every account in the conversation.
	ParticipantIDs []string `json:"participant_ids"`
}

// Message is a single direct message within a thread.
type Message struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// ThreadID links the message to its conversation.
	ThreadID string `json:"thread_id"`

	// SenderID is the account that sent the message.
	SenderID string `json:"sender_id"`

	// Content is the message body.
	Content string `json:"content"`

	// CreatedAt is when the message was sent.
	CreatedAt time.Time `json:"created_at"`
}

// ThreadPreview is the per-thread summary the engine aggregates over:
// the thread's last message plus the participant shown in list views.
// A thread whose message fetch failed for a cycle is marked unknown and
// contributes nothing to the badge for that cycle.
type ThreadPreview struct {
	// ThreadID identifies the previewed thread.
	ThreadID string `json:"thread_id"`

	// LastMessage is the most recent message, nil for empty threads.
	LastMessage *Message `json:"last_message,omitempty"`

	// OtherParticipant is the first participant that is not the
	// current account, used for display.
	OtherParticipant Profile `json:"other_participant"`

	// Known is false when the preview could not be fetched this cycle.
	Known bool `json:"known"`
}

// UnreadAgainst reports whether the thread counts as unread for selfID
// given the stored read watermark. hasCursor is false when no watermark
// exists for the thread yet.
func (p ThreadPreview) UnreadAgainst(selfID string, watermark time.Time, hasCursor bool) bool {
	if !p.Known || p.LastMessage == nil {
		return false
	}
	if p.LastMessage.SenderID == selfID {
		return false
	}
	if !hasCursor {
		return true
	}
	return p.LastMessage.CreatedAt.After(watermark)
}
