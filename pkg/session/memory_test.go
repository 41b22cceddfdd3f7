package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centraldavisao/lead-funnel/pkg/funnel"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Hour)

	_, err := m.Load(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	st := funnel.NewState()
	require.NoError(t, st.Set(funnel.FieldSituation, "nunca"))
	st.Errors = map[string]string{funnel.FieldProblem: funnel.MsgSelectAtLeastOne}
	require.NoError(t, m.Save(ctx, "s1", st))

	// Mutating the caller's copy must not leak into the store.
	st.Step = 5
	st.Errors[funnel.FieldProblem] = "changed"

	got, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, funnel.FirstStep, got.Step)
	assert.Equal(t, "nunca", got.Answers.Situation)
	assert.Equal(t, funnel.MsgSelectAtLeastOne, got.Errors[funnel.FieldProblem])

	require.NoError(t, m.Delete(ctx, "s1"))
	_, err = m.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, m.Delete(ctx, "s1"))
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemoryStore(30 * time.Minute)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Save(ctx, "old", funnel.NewState()))
	now = now.Add(20 * time.Minute)
	_, err := m.Load(ctx, "old")
	require.NoError(t, err)

	now = now.Add(31 * time.Minute)
	_, err = m.Load(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Save(ctx, "a", funnel.NewState()))
	now = now.Add(time.Hour)
	require.NoError(t, m.Save(ctx, "b", funnel.NewState()))
	assert.Len(t, m.entries, 1)
}

func TestIDs(t *testing.T) {
	id := NewID()
	assert.True(t, ValidID(id))
	assert.NotEqual(t, id, NewID())
	assert.False(t, ValidID("not-a-session"))
	assert.False(t, ValidID(""))
}

func TestLocksSerializeSameSession(t *testing.T) {
	l := NewLocks()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("s1")
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, l.locks)
}

func TestLocksIndependentSessions(t *testing.T) {
	l := NewLocks()
	unlockA := l.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}
