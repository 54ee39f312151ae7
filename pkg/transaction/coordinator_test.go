package transaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desterroshop/whatsapp-gateway/pkg/gateway"
)

// fakeRemote implements gateway.TransactionRemote in memory.
type fakeRemote struct {
	mu         sync.Mutex
	began      []string
	committed  []string
	rolledBack []string

	beginErr    error
	commitErr   error
	rollbackErr error
	statusFn    func(transactionID string) (gateway.Result, error)
}

func (f *fakeRemote) BeginTransaction(_ context.Context, transactionID string, _ map[string]interface{}) (gateway.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.began = append(f.began, transactionID)
	return gateway.Result{"success": true}, nil
}

func (f *fakeRemote) CommitTransaction(_ context.Context, transactionID string) (gateway.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	f.committed = append(f.committed, transactionID)
	return gateway.Result{"success": true}, nil
}

func (f *fakeRemote) RollbackTransaction(_ context.Context, transactionID string) (gateway.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rollbackErr != nil {
		return nil, f.rollbackErr
	}
	f.rolledBack = append(f.rolledBack, transactionID)
	return gateway.Result{"success": true}, nil
}

func (f *fakeRemote) GetTransactionStatus(_ context.Context, transactionID string) (gateway.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusFn != nil {
		return f.statusFn(transactionID)
	}
	return gateway.Result{"active": true}, nil
}

func newTestCoordinator(remote *fakeRemote) (*Coordinator, *MemoryStore) {
	store := NewMemoryStore()
	return NewCoordinator(remote, store, Options{TTL: 24 * time.Hour}), store
}

func TestBeginGeneratesID(t *testing.T) {
	remote := &fakeRemote{}
	coordinator, store := newTestCoordinator(remote)

	id, err := coordinator.Begin(context.Background(), "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, []string{id}, remote.began)

	records, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
}

func TestBeginKeepsCallerID(t *testing.T) {
	remote := &fakeRemote{}
	coordinator, _ := newTestCoordinator(remote)

	id, err := coordinator.Begin(context.Background(), "tx-caller", nil)
	require.NoError(t, err)
	assert.Equal(t, "tx-caller", id)
}

func TestBeginRemoteFailure(t *testing.T) {
	remote := &fakeRemote{beginErr: errors.New("boom")}
	coordinator, store := newTestCoordinator(remote)

	_, err := coordinator.Begin(context.Background(), "", nil)
	var txErr *Error
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "begin", txErr.Op)

	records, _ := store.List(context.Background())
	assert.Empty(t, records)
}

func TestCommitRemovesRecord(t *testing.T) {
	remote := &fakeRemote{}
	coordinator, store := newTestCoordinator(remote)
	ctx := context.Background()

	id, err := coordinator.Begin(ctx, "", nil)
	require.NoError(t, err)
	require.NoError(t, coordinator.Commit(ctx, id))

	assert.Equal(t, []string{id}, remote.committed)
	records, _ := store.List(ctx)
	assert.Empty(t, records)
}

func TestCommitFailureKeepsRecord(t *testing.T) {
	remote := &fakeRemote{}
	coordinator, store := newTestCoordinator(remote)
	ctx := context.Background()

	id, err := coordinator.Begin(ctx, "", nil)
	require.NoError(t, err)

	remote.commitErr = errors.New("remote down")
	err = coordinator.Commit(ctx, id)
	var txErr *Error
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "commit", txErr.Op)

	records, _ := store.List(ctx)
	assert.Len(t, records, 1)
}

func TestRollbackRemovesRecord(t *testing.T) {
	remote := &fakeRemote{}
	coordinator, store := newTestCoordinator(remote)
	ctx := context.Background()

	id, err := coordinator.Begin(ctx, "", nil)
	require.NoError(t, err)
	require.NoError(t, coordinator.Rollback(ctx, id))

	assert.Equal(t, []string{id}, remote.rolledBack)
	records, _ := store.List(ctx)
	assert.Empty(t, records)
}

func TestExecuteCommitsOnSuccess(t *testing.T) {
	remote := &fakeRemote{}
	coordinator, _ := newTestCoordinator(remote)

	var seenID string
	err := coordinator.Execute(context.Background(), nil, func(_ context.Context, transactionID string) error {
		seenID = transactionID
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{seenID}, remote.committed)
	assert.Empty(t, remote.rolledBack)
}

func TestExecuteRollsBackOnError(t *testing.T) {
	remote := &fakeRemote{}
	coordinator, _ := newTestCoordinator(remote)

	cause := errors.New("callback failed")
	err := coordinator.Execute(context.Background(), nil, func(context.Context, string) error {
		return cause
	})
	require.ErrorIs(t, err, cause)
	assert.Empty(t, remote.committed)
	assert.Len(t, remote.rolledBack, 1)
}

func TestExecuteRollbackFailureKeepsOriginalError(t *testing.T) {
	remote := &fakeRemote{rollbackErr: errors.New("rollback down")}
	coordinator, _ := newTestCoordinator(remote)

	cause := errors.New("callback failed")
	err := coordinator.Execute(context.Background(), nil, func(context.Context, string) error {
		return cause
	})
	require.ErrorIs(t, err, cause)
}

func TestIsActive(t *testing.T) {
	remote := &fakeRemote{}
	coordinator, _ := newTestCoordinator(remote)
	assert.True(t, coordinator.IsActive(context.Background(), "tx-1"))

	remote.statusFn = func(string) (gateway.Result, error) {
		return gateway.Result{"active": false}, nil
	}
	assert.False(t, coordinator.IsActive(context.Background(), "tx-1"))

	remote.statusFn = func(string) (gateway.Result, error) {
		return nil, errors.New("not found")
	}
	assert.False(t, coordinator.IsActive(context.Background(), "tx-1"))
}

func TestCleanupExpired(t *testing.T) {
	remote := &fakeRemote{}
	store := NewMemoryStore()

	current := time.Now()
	coordinator := NewCoordinator(remote, store, Options{
		TTL: 24 * time.Hour,
		Now: func() time.Time { return current },
	})
	ctx := context.Background()

	oldID, err := coordinator.Begin(ctx, "tx-old", nil)
	require.NoError(t, err)

	current = current.Add(25 * time.Hour)
	freshID, err := coordinator.Begin(ctx, "tx-fresh", nil)
	require.NoError(t, err)

	cleaned, err := coordinator.CleanupExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)
	assert.Equal(t, []string{oldID}, remote.rolledBack)

	records, _ := store.List(ctx)
	require.Len(t, records, 1)
	assert.Equal(t, freshID, records[0].ID)
}

func TestCleanupExpiredCountsFailedRollbacks(t *testing.T) {
	remote := &fakeRemote{}
	store := NewMemoryStore()

	current := time.Now()
	coordinator := NewCoordinator(remote, store, Options{
		TTL: 24 * time.Hour,
		Now: func() time.Time { return current },
	})
	ctx := context.Background()

	_, err := coordinator.Begin(ctx, "tx-stuck", nil)
	require.NoError(t, err)

	current = current.Add(25 * time.Hour)
	remote.rollbackErr = errors.New("remote down")

	cleaned, err := coordinator.CleanupExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)

	// The record is dropped even though the rollback failed.
	records, _ := store.List(ctx)
	assert.Empty(t, records)
}
