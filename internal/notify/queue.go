// Package notify implements the transient notification queue shown by the
// console. Entries expire on their own after a fixed delay or when dismissed.
package notify

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultTTL is how long a notification stays visible without interaction.
const DefaultTTL = 4000 * time.Millisecond

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a single queued message.
type Notification struct {
	ID        string
	Message   string
	Kind      Kind
	CreatedAt time.Time
}

// Timer is the subset of *time.Timer the queue needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn after d. It matches time.AfterFunc.
type AfterFunc func(d time.Duration, fn func()) Timer

func realAfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Option configures a Queue.
type Option func(*Queue)

// WithTTL overrides the expiry delay. Non-positive values disable expiry.
func WithTTL(ttl time.Duration) Option {
	return func(q *Queue) {
		q.ttl = ttl
	}
}

// WithAfterFunc replaces the timer source, mainly for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(q *Queue) {
		q.afterFunc = fn
	}
}

// WithClock replaces the time source used for CreatedAt and ULID timestamps.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

// Queue is an append-only list of notifications with timed expiry.
// It is safe for concurrent use.
type Queue struct {
	mu        sync.Mutex
	entries   []Notification
	timers    map[string]Timer
	ttl       time.Duration
	afterFunc AfterFunc
	now       func() time.Time
	entropy   *ulid.MonotonicEntropy
	onChange  []func()
	closed    bool
}

// New creates an empty Queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		timers:    make(map[string]Timer),
		ttl:       DefaultTTL,
		afterFunc: realAfterFunc,
		now:       time.Now,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// OnChange registers fn to be called after every push, dismissal or expiry.
// Callbacks run without the queue lock held.
func (q *Queue) OnChange(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = append(q.onChange, fn)
}

// Push appends a notification and schedules its removal.
func (q *Queue) Push(message string, kind Kind) Notification {
	q.mu.Lock()
	now := q.now()
	n := Notification{
		ID:        ulid.MustNew(ulid.Timestamp(now), q.entropy).String(),
		Message:   message,
		Kind:      kind,
		CreatedAt: now,
	}
	q.entries = append(q.entries, n)
	if q.ttl > 0 && !q.closed {
		id := n.ID
		q.timers[id] = q.afterFunc(q.ttl, func() { q.expire(id) })
	}
	q.mu.Unlock()

	q.changed()
	return n
}

// Success pushes a success notification.
func (q *Queue) Success(message string) Notification {
	return q.Push(message, KindSuccess)
}

// Error pushes an error notification.
func (q *Queue) Error(message string) Notification {
	return q.Push(message, KindError)
}

// Dismiss removes the notification immediately. It reports whether the
// notification was still present.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	removed := q.remove(id)
	q.mu.Unlock()

	if removed {
		q.changed()
	}
	return removed
}

// List returns the current notifications in insertion order.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of visible notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Close stops every pending expiry timer. Entries already queued stay
// visible; later pushes are never expired.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.closed = true
}

func (q *Queue) expire(id string) {
	q.mu.Lock()
	delete(q.timers, id)
	removed := q.remove(id)
	q.mu.Unlock()

	if removed {
		q.changed()
	}
}

// remove deletes the entry with id. Caller holds q.mu.
func (q *Queue) remove(id string) bool {
	for i, n := range q.entries {
		if n.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) changed() {
	q.mu.Lock()
	fns := make([]func(), len(q.onChange))
	copy(fns, q.onChange)
	q.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
