package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimers captures scheduled callbacks so tests can fire them on demand.
type fakeTimers struct {
	mu      sync.Mutex
	pending []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (f *fakeTimers) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	f.pending = append(f.pending, t)
	return t
}

func (f *fakeTimers) fireAll() {
	f.mu.Lock()
	timers := f.pending
	f.pending = nil
	f.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.fn()
		}
	}
}

func TestQueue_PushKeepsInsertionOrder(t *testing.T) {
	timers := &fakeTimers{}
	q := New(WithAfterFunc(timers.AfterFunc))

	q.Success("first")
	q.Error("second")
	q.Success("first")

	list := q.List()
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Message)
	assert.Equal(t, KindSuccess, list[0].Kind)
	assert.Equal(t, "second", list[1].Message)
	assert.Equal(t, KindError, list[1].Kind)
	assert.Equal(t, "first", list[2].Message, "duplicates coexist")
}

func TestQueue_IDsUniqueAndIncreasingUnderFrozenClock(t *testing.T) {
	frozen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	q := New(WithTTL(0), WithClock(func() time.Time { return frozen }))

	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 100; i++ {
		n := q.Success("tick")
		assert.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
		assert.Greater(t, n.ID, prev)
		prev = n.ID
	}
}

func TestQueue_ExpiresAfterTTL(t *testing.T) {
	timers := &fakeTimers{}
	q := New(WithAfterFunc(timers.AfterFunc))

	q.Success("saved")
	require.Len(t, timers.pending, 1)
	assert.Equal(t, DefaultTTL, timers.pending[0].d)

	timers.fireAll()
	assert.Equal(t, 0, q.Len())
}

func TestQueue_ExpiresWithRealTimer(t *testing.T) {
	q := New(WithTTL(20 * time.Millisecond))
	q.Success("saved")

	assert.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestQueue_DismissStopsTimer(t *testing.T) {
	timers := &fakeTimers{}
	q := New(WithAfterFunc(timers.AfterFunc))

	n := q.Error("boom")
	assert.True(t, q.Dismiss(n.ID))
	assert.True(t, timers.pending[0].stopped)
	assert.False(t, q.Dismiss(n.ID), "second dismissal is a no-op")
	assert.Equal(t, 0, q.Len())
}

func TestQueue_DismissThenExpireIsNoop(t *testing.T) {
	timers := &fakeTimers{}
	q := New(WithAfterFunc(timers.AfterFunc))

	keep := q.Success("keep")
	gone := q.Success("gone")
	q.Dismiss(gone.ID)

	// expiry of the dismissed entry must not remove anything else
	q.expire(gone.ID)
	list := q.List()
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
}

func TestQueue_OnChange(t *testing.T) {
	timers := &fakeTimers{}
	q := New(WithAfterFunc(timers.AfterFunc))

	calls := 0
	q.OnChange(func() { calls++ })

	n := q.Success("a")
	q.Dismiss(n.ID)
	q.Success("b")
	timers.fireAll()

	assert.Equal(t, 4, calls)
}

func TestQueue_Close(t *testing.T) {
	timers := &fakeTimers{}
	q := New(WithAfterFunc(timers.AfterFunc))

	q.Success("a")
	q.Close()
	assert.True(t, timers.pending[0].stopped)

	q.Success("b")
	assert.Len(t, timers.pending, 1, "no timers after close")
	assert.Equal(t, 2, q.Len())
}
