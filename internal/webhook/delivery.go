package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/desterroshop/whatsapp-gateway/pkg/env"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
)

// Engine forwards verified webhook events to registered subscriber URLs.
// Delivery is asynchronous: events are queued and drained by a small worker
// pool, each delivery signed and retried with exponential backoff plus
// jitter before being logged as failed.
type Engine struct {
	store      *Store
	httpClient *http.Client
	queue      chan *deliveryTask
	workers    int
	maxRetries int
	backoff    time.Duration
	factor     float64
	jitter     float64
	enabled    bool
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

type deliveryTask struct {
	subscription Subscription
	event        Event
}

func NewEngine(store *Store) *Engine {
	workers := env.GetEnvIntOrDefault("WEBHOOK_WORKERS", 4)
	if workers <= 0 {
		workers = 4
	}
	maxRetries := env.GetEnvIntOrDefault("WEBHOOK_MAX_RETRIES", 3)
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := env.GetEnvDurationOrDefault("WEBHOOK_BACKOFF_BASE", time.Second)
	factor := env.GetEnvFloatOrDefault("WEBHOOK_BACKOFF_FACTOR", 1.5)
	if factor < 1 {
		factor = 1
	}
	jitter := env.GetEnvFloatOrDefault("WEBHOOK_JITTER", 0.2)
	enabled := env.GetEnvBoolOrDefault("WEBHOOK_FORWARDING_ENABLED", true)

	ctx, cancel := context.WithCancel(context.Background())

	engine := &Engine{
		store:      store,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		queue:      make(chan *deliveryTask, 1000),
		workers:    workers,
		maxRetries: maxRetries,
		backoff:    backoff,
		factor:     factor,
		jitter:     jitter,
		enabled:    enabled,
		ctx:        ctx,
		cancel:     cancel,
	}

	if enabled && store != nil {
		for i := 0; i < workers; i++ {
			engine.wg.Add(1)
			go engine.worker()
		}
	}

	return engine
}

func (e *Engine) Store() *Store {
	return e.store
}

// Shutdown stops the workers via context cancellation. The queue channel is
// never closed so a Dispatch racing shutdown can still enqueue safely; the
// task is simply dropped once the workers are gone.
func (e *Engine) Shutdown() {
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) Dispatch(ctx context.Context, event Event) {
	if !e.enabled || e.store == nil {
		return
	}

	subscriptions, err := e.store.ActiveSubscriptions(ctx)
	if err != nil {
		log.Webhook(event.Event).WithError(err).Error("Failed to load webhook subscriptions")
		return
	}

	for _, subscription := range subscriptions {
		if !e.shouldForward(subscription, EventType(event.Event)) {
			continue
		}
		select {
		case e.queue <- &deliveryTask{subscription: subscription, event: event}:
		default:
			log.Webhook(event.Event).WithField("subscription_id", subscription.ID).Warn("Webhook delivery queue full, dropping event")
		}
	}
}

func (e *Engine) shouldForward(subscription Subscription, eventType EventType) bool {
	if len(subscription.Events) == 0 {
		return true
	}
	for _, evt := range subscription.Events {
		if evt == eventType {
			return true
		}
	}
	return false
}

func (e *Engine) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case task := <-e.queue:
			e.deliver(task)
		}
	}
}

func (e *Engine) deliver(task *deliveryTask) {
	payload, err := json.Marshal(task.event)
	if err != nil {
		log.Webhook(task.event.Event).WithError(err).Error("Failed to marshal webhook event")
		return
	}

	signature := Sign(payload, task.subscription.Secret)

	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(e.ctx, http.MethodPost, task.subscription.URL, bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			break
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(SignatureHeader, signature)
		req.Header.Set("X-Webhook-Event", task.event.Event)
		req.Header.Set("User-Agent", "whatsapp-gateway/1.0")

		resp, err := e.httpClient.Do(req)
		if err != nil {
			lastErr = err
			e.sleep(attempt)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_ = e.store.LogDelivery(e.ctx, task.subscription.ID, EventType(task.event.Event), DeliverySuccess, attempt, "")
			return
		}

		lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		e.sleep(attempt)
	}

	errorMsg := ""
	if lastErr != nil {
		errorMsg = lastErr.Error()
	}
	log.Webhook(task.event.Event).WithField("subscription_id", task.subscription.ID).Error("Webhook delivery failed: " + errorMsg)
	_ = e.store.LogDelivery(e.ctx, task.subscription.ID, EventType(task.event.Event), DeliveryFailed, e.maxRetries, errorMsg)
}

// sleep waits backoff * factor^(attempt-1), spread by the configured jitter
// fraction, before the next attempt.
func (e *Engine) sleep(attempt int) {
	if attempt >= e.maxRetries {
		return
	}
	wait := float64(e.backoff)
	for i := 1; i < attempt; i++ {
		wait *= e.factor
	}
	if e.jitter > 0 {
		spread := wait * e.jitter
		wait = wait - spread + mathrand.Float64()*2*spread
	}

	select {
	case <-e.ctx.Done():
	case <-time.After(time.Duration(wait)):
	}
}
