package webhook

import (
	"time"
)

type EventType string

const (
	EventMessageReceived     EventType = "message.received"
	EventMessageSent         EventType = "message.sent"
	EventQRGenerated         EventType = "qr.generated"
	EventSessionReady        EventType = "session.ready"
	EventSessionDisconnected EventType = "session.disconnected"
	EventSessionError        EventType = "session.error"
	EventAuthFailure         EventType = "auth.failure"
	EventGroupJoin           EventType = "group.join"
	EventGroupLeave          EventType = "group.leave"
)

// Event is the raw payload pushed by the remote server:
// {event, timestamp (epoch millis), data}.
type Event struct {
	Event     string                 `json:"event"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Time converts the epoch-millis timestamp.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// MessageReceived is the typed notification raised for inbound messages.
type MessageReceived struct {
	From      string
	Body      string
	Type      string
	SessionID string
	Timestamp time.Time
	Data      map[string]interface{}
}

// MessageSent is the typed notification raised for delivery confirmations.
type MessageSent struct {
	To        string
	Type      string
	SessionID string
	Timestamp time.Time
	Data      map[string]interface{}
}

// SessionEvent is the typed notification for session lifecycle changes and
// any event name this package does not recognize. Unknown remote event types
// flow through here so new server-side events never break ingestion.
type SessionEvent struct {
	Event     string
	SessionID string
	Timestamp time.Time
	Data      map[string]interface{}
}

type DeliveryStatus string

const (
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Subscription is a consumer endpoint that receives verified events forwarded
// by the delivery engine.
type Subscription struct {
	ID        int64       `json:"id"`
	URL       string      `json:"url"`
	Secret    string      `json:"-"`
	Events    []EventType `json:"events"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// DeliveryLog records one forwarding attempt series for a subscription.
type DeliveryLog struct {
	ID           int64          `json:"id"`
	Subscription int64          `json:"subscription_id"`
	EventType    EventType      `json:"event_type"`
	Status       DeliveryStatus `json:"status"`
	AttemptCount int            `json:"attempt_count"`
	LastError    string         `json:"last_error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
