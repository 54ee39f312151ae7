package breaker

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryState struct {
	state         State
	failures      int
	lastFailureAt time.Time
	openedAt      time.Time
	trialAt       time.Time
}

// MemoryStore keeps breaker state in-process behind a mutex. Suitable for a
// single instance and for tests; multi-instance deployments should use the
// redis store so all processes share one circuit.
type MemoryStore struct {
	mu       sync.Mutex
	services map[string]*memoryState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{services: make(map[string]*memoryState)}
}

func (s *MemoryStore) get(service string) *memoryState {
	st, ok := s.services[service]
	if !ok {
		st = &memoryState{state: StateClosed}
		s.services[service] = st
	}
	return st
}

func (s *MemoryStore) Acquire(_ context.Context, service string, resetTimeout time.Duration, now time.Time) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(service)
	switch st.state {
	case StateClosed:
		return Proceed, nil
	case StateOpen:
		if now.Sub(st.openedAt) < resetTimeout {
			return Reject, nil
		}
		// Lazy Open -> HalfOpen transition; claim the trial in the same step.
		st.state = StateHalfOpen
		st.trialAt = now
		return Trial, nil
	default: // half-open
		if st.trialAt.IsZero() || now.Sub(st.trialAt) >= resetTimeout {
			// Stale claim: the previous trial caller never reported back.
			st.trialAt = now
			return Trial, nil
		}
		return Reject, nil
	}
}

func (s *MemoryStore) Success(_ context.Context, service string, trial bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(service)
	if trial || st.state == StateHalfOpen {
		st.state = StateClosed
		st.openedAt = time.Time{}
	}
	st.failures = 0
	st.trialAt = time.Time{}
	return nil
}

func (s *MemoryStore) Failure(_ context.Context, service string, threshold int, trial bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(service)
	st.lastFailureAt = now
	if trial || st.state == StateHalfOpen {
		st.state = StateOpen
		st.openedAt = now
		st.trialAt = time.Time{}
		return nil
	}

	st.failures++
	if st.failures >= threshold {
		st.state = StateOpen
		st.openedAt = now
	}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, service string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(service)
	st.trialAt = time.Time{}
	return nil
}

func (s *MemoryStore) Reset(_ context.Context, service string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.services[service] = &memoryState{state: StateClosed}
	return nil
}

func (s *MemoryStore) Status(_ context.Context, service string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.services[service]
	if !ok {
		return Status{Service: service, State: StateClosed}, nil
	}
	return snapshot(service, st), nil
}

func (s *MemoryStore) All(_ context.Context) ([]Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.services))
	for name := range s.services {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := make([]Status, 0, len(names))
	for _, name := range names {
		statuses = append(statuses, snapshot(name, s.services[name]))
	}
	return statuses, nil
}

func snapshot(service string, st *memoryState) Status {
	status := Status{
		Service:      service,
		State:        st.state,
		FailureCount: st.failures,
	}
	if !st.lastFailureAt.IsZero() {
		t := st.lastFailureAt
		status.LastFailureAt = &t
	}
	if !st.openedAt.IsZero() {
		t := st.openedAt
		status.OpenedAt = &t
	}
	return status
}
