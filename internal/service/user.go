// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/userdesk/userdesk/internal/cache"
	"github.com/userdesk/userdesk/internal/metrics"
	"github.com/userdesk/userdesk/internal/model"
	"github.com/userdesk/userdesk/internal/repository"
)

// Store persists users.
type Store interface {
	Ping(ctx context.Context) error
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	CreateUser(ctx context.Context, draft model.Draft) (model.User, error)
	UpdateUser(ctx context.Context, user model.User) (model.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// ListCache caches the full listing. Every invalidation bumps a generation;
// SetUsers stores a listing only if the generation it was loaded at is still
// current, so a listing read before a mutation never outlives it.
type ListCache interface {
	GetUsers(ctx context.Context) ([]model.User, error)
	UsersGeneration(ctx context.Context) (int64, error)
	SetUsers(ctx context.Context, users []model.User, gen int64) (bool, error)
	InvalidateUsers(ctx context.Context) error
}

// UserService handles user business logic.
type UserService struct {
	store    Store
	cache    ListCache
	validate *validator.Validate
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewUserService creates a new UserService. listCache may be nil.
func NewUserService(store Store, listCache ListCache, recorder metrics.Recorder, logger *slog.Logger) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		store:    store,
		cache:    listCache,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  recorder,
		logger:   logger,
	}
}

// Ping checks the backing store.
func (s *UserService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ListUsers returns every user, served from the cache when possible.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	s.metrics.IncUsersListed()

	var (
		gen       int64
		writeBack bool
	)
	if s.cache != nil {
		users, err := s.cache.GetUsers(ctx)
		if err == nil {
			s.metrics.IncListCacheHit()
			return users, nil
		}
		s.metrics.IncListCacheMiss()
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("users_cache_read_failed", "error", err)
		}

		// Read before the store so a concurrent invalidation is detected.
		if gen, err = s.cache.UsersGeneration(ctx); err != nil {
			s.logger.Warn("users_cache_generation_failed", "error", err)
		} else {
			writeBack = true
		}
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	if writeBack {
		stored, err := s.cache.SetUsers(ctx, users, gen)
		switch {
		case err != nil:
			s.logger.Warn("users_cache_write_failed", "error", err)
		case !stored:
			s.logger.Debug("users_cache_write_skipped", "generation", gen)
		}
	}
	return users, nil
}

// GetUser returns one user.
func (s *UserService) GetUser(ctx context.Context, id int64) (model.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return model.User{}, mapStoreError(err)
	}
	return u, nil
}

// CreateUser validates and stores a new user.
func (s *UserService) CreateUser(ctx context.Context, draft model.Draft) (model.User, error) {
	draft, err := s.check(draft)
	if err != nil {
		return model.User{}, err
	}

	u, err := s.store.CreateUser(ctx, draft)
	if err != nil {
		return model.User{}, mapStoreError(err)
	}

	s.metrics.IncUserCreated()
	s.invalidate(ctx)
	s.logger.Info("user_created", "user_id", u.ID)
	return u, nil
}

// UpdateUser validates and replaces the user at id. A non-zero bodyID must
// equal id.
func (s *UserService) UpdateUser(ctx context.Context, id, bodyID int64, draft model.Draft) (model.User, error) {
	if bodyID != 0 && bodyID != id {
		return model.User{}, ErrIDMismatch
	}
	draft, err := s.check(draft)
	if err != nil {
		return model.User{}, err
	}

	u, err := s.store.UpdateUser(ctx, draft.WithID(id))
	if err != nil {
		return model.User{}, mapStoreError(err)
	}

	s.metrics.IncUserUpdated()
	s.invalidate(ctx)
	s.logger.Info("user_updated", "user_id", id)
	return u, nil
}

// DeleteUser removes the user at id.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return mapStoreError(err)
	}

	s.metrics.IncUserDeleted()
	s.invalidate(ctx)
	s.logger.Info("user_deleted", "user_id", id)
	return nil
}

// check trims the draft and runs the struct validation tags.
func (s *UserService) check(draft model.Draft) (model.Draft, error) {
	draft = draft.Normalize()
	if err := s.validate.Struct(draft); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return draft, fmt.Errorf("failed to validate user: %w", err)
		}
		out := &ValidationError{}
		for _, fe := range verrs {
			out.Fields = append(out.Fields, FieldError{
				Field: strings.ToLower(fe.Field()),
				Rule:  fe.Tag(),
			})
		}
		return draft, out
	}
	return draft, nil
}

func (s *UserService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUsers(ctx); err != nil {
		s.logger.Warn("users_cache_invalidate_failed", "error", err)
	}
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrEmailExists):
		return ErrEmailTaken
	default:
		return err
	}
}
