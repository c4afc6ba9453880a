package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/userdesk/userdesk/internal/model"
)

// MemoryStore is a concurrency-safe in-memory user store. Ids are assigned
// from a counter and never reused; emails are unique ignoring case.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]model.User
	nextID int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]model.User)}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// ListUsers returns every user ordered by id.
func (s *MemoryStore) ListUsers(context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b model.User) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return users, nil
}

// GetUser retrieves a user by id.
func (s *MemoryStore) GetUser(_ context.Context, id int64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

// CreateUser stores a user under the next id.
func (s *MemoryStore) CreateUser(_ context.Context, draft model.Draft) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTakenLocked(draft.Email, 0) {
		return model.User{}, ErrEmailExists
	}
	s.nextID++
	u := draft.WithID(s.nextID)
	s.users[u.ID] = u
	return u, nil
}

// UpdateUser replaces an existing user.
func (s *MemoryStore) UpdateUser(_ context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return model.User{}, ErrUserNotFound
	}
	if s.emailTakenLocked(user.Email, user.ID) {
		return model.User{}, ErrEmailExists
	}
	s.users[user.ID] = user
	return user, nil
}

// DeleteUser removes a user by id.
func (s *MemoryStore) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) emailTakenLocked(email string, except int64) bool {
	for id, u := range s.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
