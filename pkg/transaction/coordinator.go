package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/desterroshop/whatsapp-gateway/pkg/env"
	"github.com/desterroshop/whatsapp-gateway/pkg/gateway"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
)

// Record is the local bookkeeping entry for an in-flight transaction. It is
// a crash-recovery aid only; the remote server holds authoritative state.
type Record struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Options   map[string]interface{} `json:"options,omitempty"`
}

// Store persists transaction records with a bounded TTL.
type Store interface {
	Put(ctx context.Context, record Record, ttl time.Duration) error
	Remove(ctx context.Context, transactionID string) error
	List(ctx context.Context) ([]Record, error)
}

// Error wraps a begin/commit/rollback failure with its transaction id.
type Error struct {
	TransactionID string
	Op            string
	Err           error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transaction %s: %s failed: %v", e.TransactionID, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Coordinator groups gateway calls under server-issued transactions with
// commit/rollback semantics and expiry-based cleanup of local records.
type Coordinator struct {
	remote gateway.TransactionRemote
	store  Store
	ttl    time.Duration
	now    func() time.Time
}

// Options configure a Coordinator. Zero values fall back to the
// TRANSACTION_* environment surface.
type Options struct {
	TTL time.Duration
	Now func() time.Time
}

func NewCoordinator(remote gateway.TransactionRemote, store Store, opts Options) *Coordinator {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = env.GetEnvDurationOrDefault("TRANSACTION_TTL", 24*time.Hour)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Coordinator{remote: remote, store: store, ttl: ttl, now: now}
}

// Begin opens a transaction on the remote server and records it locally.
// An empty id generates one.
func (c *Coordinator) Begin(ctx context.Context, transactionID string, options map[string]interface{}) (string, error) {
	if transactionID == "" {
		transactionID = uuid.NewString()
	}

	if _, err := c.remote.BeginTransaction(ctx, transactionID, options); err != nil {
		log.Tx(transactionID).WithError(err).Error("Failed to begin transaction")
		return "", &Error{TransactionID: transactionID, Op: "begin", Err: err}
	}

	record := Record{ID: transactionID, CreatedAt: c.now(), Options: options}
	if err := c.store.Put(ctx, record, c.ttl); err != nil {
		// Local bookkeeping is best-effort; the remote transaction is live.
		log.Tx(transactionID).WithError(err).Warn("Failed to store transaction record")
	}

	log.Tx(transactionID).Info("Transaction started")
	return transactionID, nil
}

// Commit makes all grouped operations durable and removes the local record.
// Failures propagate; there is no silent success.
func (c *Coordinator) Commit(ctx context.Context, transactionID string) error {
	if _, err := c.remote.CommitTransaction(ctx, transactionID); err != nil {
		log.Tx(transactionID).WithError(err).Error("Failed to commit transaction")
		return &Error{TransactionID: transactionID, Op: "commit", Err: err}
	}

	c.remove(ctx, transactionID)
	log.Tx(transactionID).Info("Transaction committed")
	return nil
}

// Rollback discards all grouped operations and removes the local record.
func (c *Coordinator) Rollback(ctx context.Context, transactionID string) error {
	if _, err := c.remote.RollbackTransaction(ctx, transactionID); err != nil {
		log.Tx(transactionID).WithError(err).Error("Failed to roll back transaction")
		return &Error{TransactionID: transactionID, Op: "rollback", Err: err}
	}

	c.remove(ctx, transactionID)
	log.Tx(transactionID).Info("Transaction rolled back")
	return nil
}

// Execute runs fn inside a fresh transaction: commit on normal return,
// rollback on error. A rollback failure on the error path is logged but
// never replaces the original error.
func (c *Coordinator) Execute(ctx context.Context, options map[string]interface{}, fn func(ctx context.Context, transactionID string) error) error {
	transactionID, err := c.Begin(ctx, "", options)
	if err != nil {
		return err
	}

	if err := fn(ctx, transactionID); err != nil {
		if rbErr := c.Rollback(ctx, transactionID); rbErr != nil {
			log.Tx(transactionID).WithError(rbErr).Error("Rollback failed while handling callback error")
		}
		return err
	}

	return c.Commit(ctx, transactionID)
}

// Status fetches the remote server's view of the transaction.
func (c *Coordinator) Status(ctx context.Context, transactionID string) (gateway.Result, error) {
	result, err := c.remote.GetTransactionStatus(ctx, transactionID)
	if err != nil {
		return nil, &Error{TransactionID: transactionID, Op: "status", Err: err}
	}
	return result, nil
}

// IsActive reports whether the remote server still considers the transaction
// active. Any lookup failure reads as inactive.
func (c *Coordinator) IsActive(ctx context.Context, transactionID string) bool {
	status, err := c.Status(ctx, transactionID)
	if err != nil {
		return false
	}
	return status.Bool("active", false)
}

// Active lists the locally recorded in-flight transactions.
func (c *Coordinator) Active(ctx context.Context) ([]Record, error) {
	return c.store.List(ctx)
}

// CleanupExpired force-rolls-back every local record older than the cutoff.
// A record whose rollback fails is still removed and counted as cleaned; the
// remote server remains the ultimate authority on the transaction itself.
func (c *Coordinator) CleanupExpired(ctx context.Context, olderThan time.Duration) (int, error) {
	records, err := c.store.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := c.now().Add(-olderThan)
	var expired []Record
	for _, record := range records {
		if record.CreatedAt.Before(cutoff) {
			expired = append(expired, record)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, record := range expired {
		record := record
		g.Go(func() error {
			if _, err := c.remote.RollbackTransaction(gctx, record.ID); err != nil {
				log.Tx(record.ID).WithError(err).Warn("Failed to roll back expired transaction, removing record anyway")
			}
			c.remove(gctx, record.ID)
			return nil
		})
	}
	_ = g.Wait()

	log.Op("TransactionCleanup", "", "").Info(fmt.Sprintf("Cleaned %d expired transactions", len(expired)))
	return len(expired), nil
}

func (c *Coordinator) remove(ctx context.Context, transactionID string) {
	if err := c.store.Remove(ctx, transactionID); err != nil {
		log.Tx(transactionID).WithError(err).Warn("Failed to remove transaction record")
	}
}
