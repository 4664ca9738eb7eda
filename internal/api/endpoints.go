package api

import (
	"context"
	"fmt"
	"net/url"
)

// Session fetches the authenticated account and its verification state.
func (c *Client) Session(ctx context.Context) (*WireSession, error) {
	var session WireSession
	if err := c.Get(ctx, "/api/v1/session", &session); err != nil {
		return nil, fmt.Errorf("fetching session: %w", err)
	}
	return &session, nil
}

// Notifications fetches every notification delivered to the current
// account. The server does not guarantee any ordering.
func (c *Client) Notifications(ctx context.Context) ([]WireNotification, error) {
	var notifications []WireNotification
	if err := c.Get(ctx, "/api/v1/notifications", &notifications); err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationsRead marks every notification as read server-side.
func (c *Client) MarkNotificationsRead(ctx context.Context) error {
	if err := c.Post(ctx, "/api/v1/notifications/mark-read", nil, nil); err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}

// DeleteNotification removes a single notification server-side.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	path := "/api/v1/notifications/" + url.PathEscape(id)
	if err := c.Delete(ctx, path); err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}

// SyncRequests fetches sync requests incoming to the current account
// that are still pending.
func (c *Client) SyncRequests(ctx context.Context) ([]WireSyncRequest, error) {
	var requests []WireSyncRequest
	path := "/api/v1/sync-requests?direction=incoming&status=pending"
	if err := c.Get(ctx, path, &requests); err != nil {
		return nil, fmt.Errorf("fetching sync requests: %w", err)
	}
	return requests, nil
}

// Syncs fetches the account's established syncs.
func (c *Client) Syncs(ctx context.Context) ([]WireProfile, error) {
	var syncs []WireProfile
	if err := c.Get(ctx, "/api/v1/syncs", &syncs); err != nil {
		return nil, fmt.Errorf("fetching syncs: %w", err)
	}
	return syncs, nil
}

// Threads fetches every thread the current account participates in.
func (c *Client) Threads(ctx context.Context) ([]WireThread, error) {
	var threads []WireThread
	if err := c.Get(ctx, "/api/v1/threads", &threads); err != nil {
		return nil, fmt.Errorf("fetching threads: %w", err)
	}
	return threads, nil
}

// ThreadMessages fetches the messages of a single thread, oldest first.
func (c *Client) ThreadMessages(ctx context.Context, threadID string) ([]WireMessage, error) {
	path := "/api/v1/threads/" + url.PathEscape(threadID) + "/messages"
	var messages []WireMessage
	if err := c.Get(ctx, path, &messages); err != nil {
		return nil, fmt.Errorf("fetching messages for thread %s: %w", threadID, err)
	}
	return messages, nil
}

// SendMessage posts a new message to a thread and returns the created
// message as echoed back by the server.
func (c *Client) SendMessage(ctx context.Context, threadID, content string) (*WireMessage, error) {
	path := "/api/v1/threads/" + url.PathEscape(threadID) + "/messages"
	var created WireMessage
	req := SendMessageRequest{Content: content}
	if err := c.Post(ctx, path, req, &created); err != nil {
		return nil, fmt.Errorf("sending message to thread %s: %w", threadID, err)
	}
	return &created, nil
}
