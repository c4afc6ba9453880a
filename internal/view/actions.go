package view

import (
	"sync"

	"github.com/userdesk/userdesk/internal/model"
)

// Actions turns row button presses into edit and delete intents after the
// button animation. A row with an intent already queued ignores presses.
type Actions struct {
	mu       sync.Mutex
	schedule Scheduler
	editing  map[int64]bool
	deleting map[int64]bool
	onEdit   func(model.User)
	onDelete func(int64)
}

// NewActions creates the row action dispatcher.
func NewActions(onEdit func(model.User), onDelete func(int64), schedule Scheduler) *Actions {
	if schedule == nil {
		schedule = AfterFunc
	}
	return &Actions{
		schedule: schedule,
		editing:  make(map[int64]bool),
		deleting: make(map[int64]bool),
		onEdit:   onEdit,
		onDelete: onDelete,
	}
}

// Edit queues an edit intent for u. It returns false if one is already queued.
func (a *Actions) Edit(u model.User) bool {
	a.mu.Lock()
	if a.editing[u.ID] {
		a.mu.Unlock()
		return false
	}
	a.editing[u.ID] = true
	a.mu.Unlock()

	a.schedule(EditDelay, func() {
		a.onEdit(u)
		a.mu.Lock()
		delete(a.editing, u.ID)
		a.mu.Unlock()
	})
	return true
}

// Delete queues a delete intent for id. It returns false if one is already queued.
func (a *Actions) Delete(id int64) bool {
	a.mu.Lock()
	if a.deleting[id] {
		a.mu.Unlock()
		return false
	}
	a.deleting[id] = true
	a.mu.Unlock()

	a.schedule(DeleteDelay, func() {
		a.onDelete(id)
		a.mu.Lock()
		delete(a.deleting, id)
		a.mu.Unlock()
	})
	return true
}

// Editing reports whether an edit is queued for id.
func (a *Actions) Editing(id int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.editing[id]
}

// Deleting reports whether a delete is queued for id.
func (a *Actions) Deleting(id int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deleting[id]
}
