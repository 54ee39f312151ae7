package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchMessageReceived(t *testing.T) {
	dispatcher := NewDispatcher(nil)

	var got MessageReceived
	dispatcher.Subscribe(Handlers{
		OnMessageReceived: func(n MessageReceived) { got = n },
	})

	sent := time.Now().Truncate(time.Millisecond)
	dispatcher.Dispatch(context.Background(), Event{
		Event:     string(EventMessageReceived),
		Timestamp: sent.UnixMilli(),
		Data: map[string]interface{}{
			"from":      "5521999998888",
			"body":      "hello",
			"type":      "text",
			"sessionId": "default",
		},
	})

	assert.Equal(t, "5521999998888", got.From)
	assert.Equal(t, "hello", got.Body)
	assert.Equal(t, "text", got.Type)
	assert.Equal(t, "default", got.SessionID)
	assert.True(t, got.Timestamp.Equal(sent))
}

func TestDispatchMessageSent(t *testing.T) {
	dispatcher := NewDispatcher(nil)

	var got MessageSent
	dispatcher.Subscribe(Handlers{
		OnMessageSent: func(n MessageSent) { got = n },
	})

	dispatcher.Dispatch(context.Background(), Event{
		Event: string(EventMessageSent),
		Data: map[string]interface{}{
			"to":        "5521999998888",
			"sessionId": "default",
		},
	})

	assert.Equal(t, "5521999998888", got.To)
}

func TestDispatchSessionEvent(t *testing.T) {
	dispatcher := NewDispatcher(nil)

	var got SessionEvent
	dispatcher.Subscribe(Handlers{
		OnSessionEvent: func(n SessionEvent) { got = n },
	})

	dispatcher.Dispatch(context.Background(), Event{
		Event: string(EventSessionDisconnected),
		Data:  map[string]interface{}{"sessionId": "default"},
	})

	assert.Equal(t, string(EventSessionDisconnected), got.Event)
	assert.Equal(t, "default", got.SessionID)
}

func TestDispatchUnknownEventBecomesSessionEvent(t *testing.T) {
	dispatcher := NewDispatcher(nil)

	var got SessionEvent
	dispatcher.Subscribe(Handlers{
		OnSessionEvent: func(n SessionEvent) { got = n },
	})

	dispatcher.Dispatch(context.Background(), Event{
		Event: "something.brand-new",
		Data:  map[string]interface{}{"sessionId": "default"},
	})

	require.Equal(t, "something.brand-new", got.Event)
}

func TestDispatchNilHandlersAreSkipped(t *testing.T) {
	dispatcher := NewDispatcher(nil)
	dispatcher.Subscribe(Handlers{})

	// Must not panic.
	dispatcher.Dispatch(context.Background(), Event{Event: string(EventMessageReceived)})
}
