package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desterroshop/whatsapp-gateway/pkg/gateway"
)

const service = "whatsapp-api"

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(store Store, clk *clock) *Breaker {
	return New(store, Options{
		Threshold:    3,
		ResetTimeout: time.Minute,
		Now:          clk.Now,
	})
}

func countableErr() error {
	return &gateway.ConnectivityError{Op: "SendText", Err: errors.New("connection refused")}
}

func tripOpen(t *testing.T, b *Breaker) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		decision, err := b.Allow(ctx, service)
		require.NoError(t, err)
		require.Equal(t, Proceed, decision)
		b.Record(ctx, service, decision, countableErr())
	}
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)
	ctx := context.Background()

	tripOpen(t, b)

	status, err := b.Status(ctx, service)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, status.State)
	assert.Equal(t, 3, status.FailureCount)
	require.NotNil(t, status.OpenedAt)

	decision, err := b.Allow(ctx, service)
	require.NoError(t, err)
	assert.Equal(t, Reject, decision)
}

func TestBreakerBelowThresholdStaysClosed(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision, _ := b.Allow(ctx, service)
		b.Record(ctx, service, decision, countableErr())
	}

	status, _ := b.Status(ctx, service)
	assert.Equal(t, StateClosed, status.State)
	assert.Equal(t, 2, status.FailureCount)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)
	ctx := context.Background()

	decision, _ := b.Allow(ctx, service)
	b.Record(ctx, service, decision, countableErr())
	decision, _ = b.Allow(ctx, service)
	b.Record(ctx, service, decision, nil)

	status, _ := b.Status(ctx, service)
	assert.Equal(t, StateClosed, status.State)
	assert.Equal(t, 0, status.FailureCount)
}

func TestNonCountableErrorsDoNotTrip(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		decision, _ := b.Allow(ctx, service)
		b.Record(ctx, service, decision, &gateway.ValidationError{Field: "to", Reason: "empty"})
	}

	status, _ := b.Status(ctx, service)
	assert.Equal(t, StateClosed, status.State)
	assert.Equal(t, 0, status.FailureCount)
}

func TestHalfOpenSingleTrial(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)
	ctx := context.Background()

	tripOpen(t, b)
	clk.Advance(61 * time.Second)

	first, err := b.Allow(ctx, service)
	require.NoError(t, err)
	assert.Equal(t, Trial, first)

	second, err := b.Allow(ctx, service)
	require.NoError(t, err)
	assert.Equal(t, Reject, second)
}

func TestTrialSuccessClosesCircuit(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)
	ctx := context.Background()

	tripOpen(t, b)
	clk.Advance(61 * time.Second)

	decision, _ := b.Allow(ctx, service)
	require.Equal(t, Trial, decision)
	b.Record(ctx, service, decision, nil)

	status, _ := b.Status(ctx, service)
	assert.Equal(t, StateClosed, status.State)
	assert.Equal(t, 0, status.FailureCount)
}

func TestTrialFailureReopensCircuit(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)
	ctx := context.Background()

	tripOpen(t, b)
	clk.Advance(61 * time.Second)

	decision, _ := b.Allow(ctx, service)
	require.Equal(t, Trial, decision)
	b.Record(ctx, service, decision, countableErr())

	next, _ := b.Allow(ctx, service)
	assert.Equal(t, Reject, next)

	status, _ := b.Status(ctx, service)
	assert.Equal(t, StateOpen, status.State)
}

func TestTrialReleaseOnNonCountableError(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)
	ctx := context.Background()

	tripOpen(t, b)
	clk.Advance(61 * time.Second)

	decision, _ := b.Allow(ctx, service)
	require.Equal(t, Trial, decision)
	b.Record(ctx, service, decision, &gateway.ValidationError{Field: "to", Reason: "empty"})

	// The slot is free again, the next caller gets the trial.
	next, _ := b.Allow(ctx, service)
	assert.Equal(t, Trial, next)
}

func TestManualReset(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)
	ctx := context.Background()

	tripOpen(t, b)
	require.NoError(t, b.Reset(ctx, service))

	status, _ := b.Status(ctx, service)
	assert.Equal(t, StateClosed, status.State)
	assert.Equal(t, 0, status.FailureCount)

	decision, _ := b.Allow(ctx, service)
	assert.Equal(t, Proceed, decision)
}

func TestExecuteRejectsWithoutCalling(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)
	ctx := context.Background()

	tripOpen(t, b)

	called := false
	_, err := Execute(ctx, b, service, func(context.Context) (string, error) {
		called = true
		return "", nil
	}, nil)

	assert.False(t, called)
	var openErr *CircuitOpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, service, openErr.Service)
}

func TestExecuteFallback(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)
	ctx := context.Background()

	tripOpen(t, b)

	result, err := Execute(ctx, b, service, func(context.Context) (string, error) {
		return "", nil
	}, func(cause error) (string, error) {
		return "fallback", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fallback", result)
}

func TestExecutePassesThroughResult(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)
	ctx := context.Background()

	result, err := Execute(ctx, b, service, func(context.Context) (string, error) {
		return "sent", nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sent", result)
}

func TestUnknownServiceStatus(t *testing.T) {
	clk := &clock{now: time.Now()}
	b := newTestBreaker(NewMemoryStore(), clk)

	status, err := b.Status(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, StateClosed, status.State)
	assert.Equal(t, 0, status.FailureCount)
}
