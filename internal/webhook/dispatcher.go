package webhook

import (
	"context"
	"sync"

	"github.com/desterroshop/whatsapp-gateway/pkg/log"
)

// Handlers receive typed notifications raised from verified webhook events.
// All methods are optional; nil handlers are skipped.
type Handlers struct {
	OnMessageReceived func(MessageReceived)
	OnMessageSent     func(MessageSent)
	OnSessionEvent    func(SessionEvent)
}

// Dispatcher maps raw webhook events onto typed notifications and fans them
// out to in-process subscribers plus the outbound delivery engine.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handlers
	engine   *Engine
}

func NewDispatcher(engine *Engine) *Dispatcher {
	return &Dispatcher{engine: engine}
}

// Subscribe registers an in-process handler set.
func (d *Dispatcher) Subscribe(h Handlers) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Dispatch routes one verified event. Unrecognized event names are treated as
// generic session events rather than errors.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	log.Webhook(event.Event).Info("Dispatching webhook event")

	sessionID, _ := event.Data["sessionId"].(string)

	switch EventType(event.Event) {
	case EventMessageReceived:
		notification := MessageReceived{
			From:      stringField(event.Data, "from"),
			Body:      stringField(event.Data, "body"),
			Type:      stringField(event.Data, "type"),
			SessionID: sessionID,
			Timestamp: event.Time(),
			Data:      event.Data,
		}
		d.each(func(h Handlers) {
			if h.OnMessageReceived != nil {
				h.OnMessageReceived(notification)
			}
		})
		log.Webhook(event.Event).WithField("from", notification.From).Info("Message received")

	case EventMessageSent:
		notification := MessageSent{
			To:        stringField(event.Data, "to"),
			Type:      stringField(event.Data, "type"),
			SessionID: sessionID,
			Timestamp: event.Time(),
			Data:      event.Data,
		}
		d.each(func(h Handlers) {
			if h.OnMessageSent != nil {
				h.OnMessageSent(notification)
			}
		})
		log.Webhook(event.Event).WithField("to", notification.To).Info("Message sent")

	default:
		notification := SessionEvent{
			Event:     event.Event,
			SessionID: sessionID,
			Timestamp: event.Time(),
			Data:      event.Data,
		}
		d.each(func(h Handlers) {
			if h.OnSessionEvent != nil {
				h.OnSessionEvent(notification)
			}
		})
		log.Webhook(event.Event).WithField("session_id", sessionID).Info("Session event")
	}

	if d.engine != nil {
		d.engine.Dispatch(ctx, event)
	}
	log.Webhook(event.Event).Debug("Webhook event dispatched")
}

func (d *Dispatcher) each(fn func(Handlers)) {
	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()
	for _, h := range handlers {
		fn(h)
	}
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
