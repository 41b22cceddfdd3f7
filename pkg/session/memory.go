package session

import (
	"context"
	"sync"
	"time"

	"github.com/centraldavisao/lead-funnel/pkg/funnel"
)

type memoryEntry struct {
	state     funnel.State
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Sessions idle for longer
// than the TTL are dropped.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load returns a copy of the stored state.
func (m *MemoryStore) Load(_ context.Context, id string) (*funnel.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, id)
		return nil, ErrNotFound
	}
	st := e.state
	st.Errors = copyErrors(e.state.Errors)
	return &st, nil
}

// Save stores a copy of state and refreshes the session's expiry.
func (m *MemoryStore) Save(_ context.Context, id string, state *funnel.State) error {
	st := *state
	st.Errors = copyErrors(state.Errors)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.entries[id] = memoryEntry{state: st, expiresAt: m.now().Add(m.ttl)}
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// sweep drops expired entries. Caller holds mu.
func (m *MemoryStore) sweep() {
	now := m.now()
	for id, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, id)
		}
	}
}

func copyErrors(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
