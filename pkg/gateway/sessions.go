package gateway

import (
	"context"
	"net/http"
	"time"
)

// SessionManager is the session lifecycle capability of the gateway client.
type SessionManager interface {
	GetSessions(ctx context.Context) (Result, error)
	CreateSession(ctx context.Context, sessionID string) (Result, error)
	DeleteSession(ctx context.Context, sessionID string) (Result, error)
	GetSessionStatus(ctx context.Context, sessionID string) (Result, error)
	GetQRCode(ctx context.Context, sessionID string) (Result, error)
}

var _ SessionManager = (*Client)(nil)

// GetSessions lists the sessions known to the remote server.
func (c *Client) GetSessions(ctx context.Context) (Result, error) {
	return c.do(ctx, "GetSessions", http.MethodGet, "/sessions", "", nil)
}

// CreateSession provisions a new session on the remote server.
func (c *Client) CreateSession(ctx context.Context, sessionID string) (Result, error) {
	if sessionID == "" {
		return nil, &ValidationError{Field: "sessionId", Reason: "session id is required"}
	}
	return c.do(ctx, "CreateSession", http.MethodPost, "/sessions", sessionID, map[string]interface{}{
		"sessionId": sessionID,
	})
}

// DeleteSession removes a session from the remote server.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) (Result, error) {
	if sessionID == "" {
		return nil, &ValidationError{Field: "sessionId", Reason: "session id is required"}
	}
	return c.do(ctx, "DeleteSession", http.MethodDelete, "/sessions/"+sessionID, sessionID, nil)
}

// GetSessionStatus reports the connection state for a session.
func (c *Client) GetSessionStatus(ctx context.Context, sessionID string) (Result, error) {
	return c.do(ctx, "GetSessionStatus", http.MethodGet, "/sessions/"+c.session(sessionID)+"/status", sessionID, nil)
}

// GetQRCode fetches the pairing QR payload for a session.
func (c *Client) GetQRCode(ctx context.Context, sessionID string) (Result, error) {
	return c.do(ctx, "GetQRCode", http.MethodGet, "/sessions/"+c.session(sessionID)+"/qr", sessionID, nil)
}

// WaitForConnection polls the session status in fixed intervals until the
// session reports connected or the timeout elapses. It is a convenience for
// pairing flows; the remote server owns the actual connection.
func (c *Client) WaitForConnection(ctx context.Context, sessionID string, interval, timeout time.Duration) (bool, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.GetSessionStatus(ctx, sessionID)
		if err == nil && status.Bool("connected", false) {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, err
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SetWebhook registers a callback URL for the given events with the remote
// server.
func (c *Client) SetWebhook(ctx context.Context, url string, events []string) (Result, error) {
	if url == "" {
		return nil, &ValidationError{Field: "url", Reason: "webhook url is required"}
	}
	return c.do(ctx, "SetWebhook", http.MethodPost, "/webhook", url, map[string]interface{}{
		"url":    url,
		"events": events,
	})
}
