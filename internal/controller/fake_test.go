package controller

import (
	"context"
	"slices"
	"sync"

	"github.com/userdesk/userdesk/internal/model"
	"github.com/userdesk/userdesk/internal/remote"
)

var errBoom = &remote.ServerError{Op: "test", StatusCode: 500}

// fakeAPI is an in-memory collection standing in for the remote endpoint.
type fakeAPI struct {
	mu     sync.Mutex
	users  []model.User
	nextID int64

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	// gate, when set, blocks Update and Delete until closed.
	gate chan struct{}
	// entered receives a value when a gated call starts.
	entered chan struct{}

	calls map[string]int
}

func newFakeAPI(users ...model.User) *fakeAPI {
	f := &fakeAPI{calls: make(map[string]int), nextID: 1}
	for _, u := range users {
		f.users = append(f.users, u)
		if u.ID >= f.nextID {
			f.nextID = u.ID + 1
		}
	}
	return f
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) List(ctx context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return slices.Clone(f.users), nil
}

func (f *fakeAPI) Create(ctx context.Context, draft model.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if f.createErr != nil {
		return f.createErr
	}
	f.users = append(f.users, draft.WithID(f.nextID))
	f.nextID++
	return nil
}

func (f *fakeAPI) Update(ctx context.Context, id int64, user model.User) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	if f.updateErr != nil {
		return f.updateErr
	}
	for i, u := range f.users {
		if u.ID == id {
			user.ID = id
			f.users[i] = user
			return nil
		}
	}
	return &remote.ServerError{Op: remote.OpUpdate, StatusCode: 404}
}

func (f *fakeAPI) Delete(ctx context.Context, id int64) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.users = slices.DeleteFunc(f.users, func(u model.User) bool { return u.ID == id })
	return nil
}

func (f *fakeAPI) wait() {
	if f.gate == nil {
		return
	}
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	<-f.gate
}

