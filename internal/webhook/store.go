package webhook

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/desterroshop/whatsapp-gateway/pkg/env"
)

// Store persists webhook subscriptions and delivery logs in Postgres.
// Active subscriptions are cached briefly because the delivery engine loads
// them on every dispatched event.
type Store struct {
	db       *sql.DB
	cacheMu  sync.RWMutex
	cached   []Subscription
	cachedAt time.Time
	cacheTTL time.Duration
}

func NewStore(db *sql.DB) *Store {
	ttl := env.GetEnvDurationOrDefault("WEBHOOK_CACHE_TTL", 15*time.Second)
	if ttl < 0 {
		ttl = 0
	}
	return &Store{db: db, cacheTTL: ttl}
}

// EnsureSchema creates the subscription tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS webhook_subscriptions (
			id BIGSERIAL PRIMARY KEY,
			url TEXT NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			events JSONB NOT NULL DEFAULT '[]',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS webhook_deliveries (
			id BIGSERIAL PRIMARY KEY,
			subscription_id BIGINT NOT NULL REFERENCES webhook_subscriptions(id) ON DELETE CASCADE,
			event_type TEXT NOT NULL,
			status TEXT NOT NULL,
			attempt_count INT NOT NULL,
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (s *Store) invalidate() {
	s.cacheMu.Lock()
	s.cached = nil
	s.cachedAt = time.Time{}
	s.cacheMu.Unlock()
}

// ActiveSubscriptions returns all active subscriptions, served from cache
// within the TTL window.
func (s *Store) ActiveSubscriptions(ctx context.Context) ([]Subscription, error) {
	if s.cacheTTL > 0 {
		s.cacheMu.RLock()
		if s.cached != nil && time.Since(s.cachedAt) < s.cacheTTL {
			cached := s.cached
			s.cacheMu.RUnlock()
			return cached, nil
		}
		s.cacheMu.RUnlock()
	}

	subscriptions, err := s.query(ctx, `
		SELECT id, url, secret, events, active, created_at, updated_at
		FROM webhook_subscriptions
		WHERE active = TRUE
	`)
	if err != nil {
		return nil, err
	}

	if s.cacheTTL > 0 {
		s.cacheMu.Lock()
		s.cached = subscriptions
		s.cachedAt = time.Now()
		s.cacheMu.Unlock()
	}
	return subscriptions, nil
}

// AllSubscriptions returns every subscription, active or not.
func (s *Store) AllSubscriptions(ctx context.Context) ([]Subscription, error) {
	return s.query(ctx, `
		SELECT id, url, secret, events, active, created_at, updated_at
		FROM webhook_subscriptions
	`)
}

func (s *Store) query(ctx context.Context, query string, args ...interface{}) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscriptions []Subscription
	for rows.Next() {
		var sub Subscription
		var eventsJSON []byte
		if err := rows.Scan(&sub.ID, &sub.URL, &sub.Secret, &eventsJSON, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(eventsJSON, &sub.Events); err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, sub)
	}
	return subscriptions, rows.Err()
}

// CreateSubscription registers a new subscriber URL.
func (s *Store) CreateSubscription(ctx context.Context, url, secret string, events []EventType) (int64, error) {
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO webhook_subscriptions (url, secret, events, active, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id
	`, url, secret, string(eventsJSON)).Scan(&id)
	if err == nil {
		s.invalidate()
	}
	return id, err
}

// DeleteSubscription removes a subscriber.
func (s *Store) DeleteSubscription(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM webhook_subscriptions WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	s.invalidate()
	return nil
}

// LogDelivery records the outcome of one delivery attempt series.
func (s *Store) LogDelivery(ctx context.Context, subscriptionID int64, eventType EventType, status DeliveryStatus, attemptCount int, lastError string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO webhook_deliveries (subscription_id, event_type, status, attempt_count, last_error, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
	`, subscriptionID, eventType, status, attemptCount, lastError)
	return err
}
