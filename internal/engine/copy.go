package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/perchapp/perch/internal/model"
)

// Toast copy per notification kind. Titles carry the actor's display
// name; the detail line states what they did.

func toastForNotification(n model.NotificationEvent) model.Toast {
	title := n.ActorName
	if title == "" {
		title = "Someone"
	}

	var detail string
	switch n.Kind {
	case model.KindPostAlign:
		detail = "Aligned with your post"
	case model.KindPostComment:
		detail = "Commented on your post"
	case model.KindCommentAlign:
		detail = "Aligned with your comment"
	case model.KindSyncApproved:
		detail = "Approved your sync request"
	default:
		detail = "New activity"
	}

	return model.Toast{
		ID:               uuid.New().String(),
		Title:            title,
		Detail:           detail,
		AvatarURL:        n.ActorAvatarURL,
		SubjectProfileID: n.ActorID,
		CreatedAt:        time.Now(),
	}
}

func toastForSyncRequest(r model.SyncRequest) model.Toast {
	title := r.RequesterName
	if title == "" {
		title = "Someone"
	}

	return model.Toast{
		ID:               uuid.New().String(),
		Title:            title,
		Detail:           "Sent a sync request",
		AvatarURL:        r.RequesterAvatarURL,
		SubjectProfileID: r.RequesterID,
		CreatedAt:        time.Now(),
	}
}
