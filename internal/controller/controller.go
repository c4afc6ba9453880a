// Package controller owns the console's canonical copy of the user
// collection. Every mutation goes through the remote API and is followed by a
// full reload; the list is never patched locally.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/userdesk/userdesk/internal/model"
	"github.com/userdesk/userdesk/internal/notify"
	"github.com/userdesk/userdesk/internal/remote"
)

// Errors returned by Controller mutations.
var (
	// ErrRecordBusy is returned when a record already has an update or delete in flight.
	ErrRecordBusy = errors.New("record has a pending change")
	// ErrStale is returned when a mutation succeeded but the reload after it failed.
	ErrStale = errors.New("user list may be stale")
)

// Notification texts.
const (
	MsgRefreshed    = "Data refreshed successfully!"
	MsgRefreshError = "Failed to fetch users"
	MsgAdded        = "User added successfully!"
	MsgAddError     = "Failed to add user"
	MsgUpdated      = "User updated successfully!"
	MsgUpdateError  = "Failed to update user"
	MsgDeleted      = "User deleted successfully!"
	MsgDeleteError  = "Failed to delete user"
)

// Notifier receives one message per operation outcome.
type Notifier interface {
	Success(message string) notify.Notification
	Error(message string) notify.Notification
}

// Controller is the state container for the console. It is safe for
// concurrent use; remote calls run without holding the lock.
type Controller struct {
	api    remote.API
	notes  Notifier
	logger *slog.Logger

	mu          sync.Mutex
	users       []model.User
	term        string
	loading     int
	refreshing  int
	pending     map[int64]struct{}
	subscribers []func(State)
}

// New creates a Controller with an empty list. Call Refresh to load it.
func New(api remote.API, notes Notifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		api:     api,
		notes:   notes,
		logger:  logger,
		users:   []model.User{},
		pending: make(map[int64]struct{}),
	}
}

// Subscribe registers fn to receive the state after every change.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Snapshot returns the current state with derived fields computed.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	users := slices.Clone(c.users)
	pending := make([]int64, 0, len(c.pending))
	for id := range c.pending {
		pending = append(pending, id)
	}
	slices.Sort(pending)

	return State{
		Users:      users,
		Filtered:   Filter(users, c.term),
		SearchTerm: c.term,
		Stats:      ComputeStats(users),
		Loading:    c.loading > 0,
		Refreshing: c.refreshing > 0,
		Pending:    pending,
	}
}

// Find looks a user up in the canonical list.
func (c *Controller) Find(id int64) (model.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

// SearchTerm returns the current filter text.
func (c *Controller) SearchTerm() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.term
}

// SetSearchTerm replaces the filter text. The filtered view is recomputed on read.
func (c *Controller) SetSearchTerm(term string) {
	c.update(func() { c.term = term })
}

// ClearSearch resets the filter text.
func (c *Controller) ClearSearch() {
	c.SetSearchTerm("")
}

// Refresh reloads the collection and reports the outcome as a notification.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := c.reload(ctx); err != nil {
		c.logger.Error("refresh_failed", "error", err)
		c.notes.Error(MsgRefreshError)
		return err
	}
	c.notes.Success(MsgRefreshed)
	return nil
}

// AddUser creates a user and reloads the collection.
func (c *Controller) AddUser(ctx context.Context, draft model.Draft) error {
	c.update(func() { c.loading++ })
	defer c.update(func() { c.loading-- })

	if err := c.api.Create(ctx, draft); err != nil {
		c.logger.Error("add_user_failed", "error", err)
		c.notes.Error(MsgAddError)
		return err
	}
	c.logger.Info("user_added", "email", draft.Email)
	return c.afterMutation(ctx, MsgAdded, "User added, but failed to refresh users")
}

// UpdateUser replaces a user and reloads the collection. Concurrent changes
// to the same id are rejected with ErrRecordBusy.
func (c *Controller) UpdateUser(ctx context.Context, user model.User) error {
	if !c.claim(user.ID) {
		c.notes.Error(busyMessage(user.ID))
		return ErrRecordBusy
	}
	defer c.release(user.ID)

	c.update(func() { c.loading++ })
	defer c.update(func() { c.loading-- })

	if err := c.api.Update(ctx, user.ID, user); err != nil {
		c.logger.Error("update_user_failed", "user_id", user.ID, "error", err)
		c.notes.Error(MsgUpdateError)
		return err
	}
	c.logger.Info("user_updated", "user_id", user.ID)
	return c.afterMutation(ctx, MsgUpdated, "User updated, but failed to refresh users")
}

// DeleteUser removes a user and reloads the collection. Concurrent changes
// to the same id are rejected with ErrRecordBusy.
func (c *Controller) DeleteUser(ctx context.Context, id int64) error {
	if !c.claim(id) {
		c.notes.Error(busyMessage(id))
		return ErrRecordBusy
	}
	defer c.release(id)

	c.update(func() { c.loading++ })
	defer c.update(func() { c.loading-- })

	if err := c.api.Delete(ctx, id); err != nil {
		c.logger.Error("delete_user_failed", "user_id", id, "error", err)
		c.notes.Error(MsgDeleteError)
		return err
	}
	c.logger.Info("user_deleted", "user_id", id)
	return c.afterMutation(ctx, MsgDeleted, "User deleted, but failed to refresh users")
}

// afterMutation reloads silently and emits the single notification for a
// mutation that the server accepted.
func (c *Controller) afterMutation(ctx context.Context, success, stale string) error {
	if err := c.reload(ctx); err != nil {
		c.logger.Error("reload_after_mutation_failed", "error", err)
		c.notes.Error(stale)
		return fmt.Errorf("%w: %w", ErrStale, err)
	}
	c.notes.Success(success)
	return nil
}

// reload fetches the collection and replaces the canonical list on success.
func (c *Controller) reload(ctx context.Context) error {
	c.update(func() { c.refreshing++ })
	defer c.update(func() { c.refreshing-- })

	users, err := c.api.List(ctx)
	if err != nil {
		return err
	}
	c.update(func() { c.users = slices.Clone(users) })
	c.logger.Debug("users_reloaded", "count", len(users))
	return nil
}

func (c *Controller) claim(id int64) bool {
	c.mu.Lock()
	if _, busy := c.pending[id]; busy {
		c.mu.Unlock()
		return false
	}
	c.pending[id] = struct{}{}
	c.mu.Unlock()
	c.publish()
	return true
}

func (c *Controller) release(id int64) {
	c.update(func() { delete(c.pending, id) })
}

// update applies fn under the lock and then notifies subscribers.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) publish() {
	c.mu.Lock()
	if len(c.subscribers) == 0 {
		c.mu.Unlock()
		return
	}
	state := c.snapshotLocked()
	subs := slices.Clone(c.subscribers)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

func busyMessage(id int64) string {
	return fmt.Sprintf("User %d has a pending change", id)
}
