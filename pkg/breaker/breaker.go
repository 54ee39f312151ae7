package breaker

import (
	"context"
	"fmt"
	"time"

	"github.com/desterroshop/whatsapp-gateway/pkg/env"
	"github.com/desterroshop/whatsapp-gateway/pkg/gateway"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
)

// State is a circuit breaker state. String values match the remote server's
// introspection API.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Status is a point-in-time view of one service's breaker.
type Status struct {
	Service       string     `json:"service"`
	State         State      `json:"state"`
	FailureCount  int        `json:"failure_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	OpenedAt      *time.Time `json:"opened_at,omitempty"`
}

// Decision is the outcome of asking the breaker whether a call may proceed.
type Decision int

const (
	// Proceed: the circuit is closed, call normally.
	Proceed Decision = iota
	// Trial: the circuit is half-open and this caller claimed the single
	// trial slot.
	Trial
	// Reject: the circuit is open, or half-open with the trial already
	// claimed by another caller.
	Reject
)

// Store holds per-service breaker state. Implementations must make each
// transition atomic per key so concurrent callers (possibly in different
// processes) cannot double-transition a circuit.
type Store interface {
	// Acquire applies the lazy Open->HalfOpen transition and decides whether
	// the caller may proceed. At most one caller is handed Trial per
	// half-open window.
	Acquire(ctx context.Context, service string, resetTimeout time.Duration, now time.Time) (Decision, error)
	// Success records a successful call. A trial success closes the circuit;
	// any success resets the failure counter.
	Success(ctx context.Context, service string, trial bool) error
	// Failure records a countable failure. A trial failure reopens the
	// circuit; a closed-circuit failure that reaches threshold opens it.
	Failure(ctx context.Context, service string, threshold int, trial bool, now time.Time) error
	// Release returns an unused trial slot without recording an outcome,
	// used when a trial call failed caller-side validation.
	Release(ctx context.Context, service string) error
	// Reset forces the circuit closed with a zero failure count.
	Reset(ctx context.Context, service string) error
	// Status returns one service's state; Closed with zero failures when the
	// service has never been seen.
	Status(ctx context.Context, service string) (Status, error)
	// All returns every service the store has seen.
	All(ctx context.Context) ([]Status, error)
}

// CircuitOpenError is returned when the breaker rejects a call without
// attempting it.
type CircuitOpenError struct {
	Service string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("service %q unavailable: circuit breaker open", e.Service)
}

// Options configure a Breaker. Zero values fall back to the
// CIRCUIT_BREAKER_* environment surface.
type Options struct {
	Threshold    int
	ResetTimeout time.Duration
	// Countable decides which errors feed the failure counter. Defaults to
	// gateway.Countable (connectivity + remote failures only).
	Countable func(error) bool
	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// Breaker gates calls to named downstream services with the classic
// closed/open/half-open state machine. Concurrency policy: while half-open,
// only the caller that atomically claims the trial slot proceeds; every other
// caller is rejected as if the circuit were open.
type Breaker struct {
	store        Store
	threshold    int
	resetTimeout time.Duration
	countable    func(error) bool
	now          func() time.Time
}

func New(store Store, opts Options) *Breaker {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = env.GetEnvIntOrDefault("CIRCUIT_BREAKER_THRESHOLD", 5)
	}
	resetTimeout := opts.ResetTimeout
	if resetTimeout <= 0 {
		resetTimeout = env.GetEnvDurationOrDefault("CIRCUIT_BREAKER_RESET_TIMEOUT", 60*time.Second)
	}
	countable := opts.Countable
	if countable == nil {
		countable = gateway.Countable
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Breaker{
		store:        store,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		countable:    countable,
		now:          now,
	}
}

// Allow asks whether a call to the service may proceed right now.
func (b *Breaker) Allow(ctx context.Context, service string) (Decision, error) {
	return b.store.Acquire(ctx, service, b.resetTimeout, b.now())
}

// Record feeds a call outcome back into the breaker. Non-countable errors
// (validation, authentication) leave the counter untouched; a trial slot held
// for such a call is released so the next caller can probe.
func (b *Breaker) Record(ctx context.Context, service string, decision Decision, callErr error) {
	trial := decision == Trial

	var err error
	switch {
	case callErr == nil:
		err = b.store.Success(ctx, service, trial)
	case b.countable(callErr):
		err = b.store.Failure(ctx, service, b.threshold, trial, b.now())
	case trial:
		err = b.store.Release(ctx, service)
	}
	if err != nil {
		log.Op("BreakerRecord", service, "").WithError(err).Error("Failed to record circuit breaker outcome")
	}
}

// Reset forces the service's circuit closed. Used for operational recovery
// without waiting out the reset timeout.
func (b *Breaker) Reset(ctx context.Context, service string) error {
	if err := b.store.Reset(ctx, service); err != nil {
		return err
	}
	log.Op("BreakerReset", service, "").Info("Circuit breaker manually reset")
	return nil
}

// Status returns the breaker view for one service.
func (b *Breaker) Status(ctx context.Context, service string) (Status, error) {
	return b.store.Status(ctx, service)
}

// All returns the breaker view for every known service.
func (b *Breaker) All(ctx context.Context) ([]Status, error) {
	return b.store.All(ctx)
}

// Execute runs op under the breaker for the named service. When the circuit
// rejects the call, fallback is invoked if supplied, otherwise a
// CircuitOpenError is returned without any network attempt. Countable
// failures are recorded and re-raised; the breaker never retries.
//
// If the breaker store itself is unreachable, the call proceeds as if the
// circuit were closed: losing the shared store must not stop traffic.
func Execute[T any](ctx context.Context, b *Breaker, service string, op func(context.Context) (T, error), fallback func(error) (T, error)) (T, error) {
	decision, err := b.Allow(ctx, service)
	if err != nil {
		log.Op("BreakerAllow", service, "").WithError(err).Error("Circuit breaker store unavailable, allowing call")
		decision = Proceed
	}

	if decision == Reject {
		openErr := &CircuitOpenError{Service: service}
		log.Op("BreakerReject", service, "").Warn(openErr.Error())
		if fallback != nil {
			return fallback(openErr)
		}
		var zero T
		return zero, openErr
	}

	result, callErr := op(ctx)
	b.Record(ctx, service, decision, callErr)
	if callErr != nil && fallback != nil && b.countable(callErr) {
		return fallback(callErr)
	}
	return result, callErr
}
