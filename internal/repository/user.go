package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/userdesk/userdesk/internal/model"
)

// ListUsers returns every user ordered by id.
func (r *Repository) ListUsers(ctx context.Context) ([]model.User, error) {
	query := `
		SELECT id, name, email
		FROM users
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// GetUser retrieves a user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (model.User, error) {
	query := `
		SELECT id, name, email
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return u, nil
}

// CreateUser inserts a user and returns it with the assigned id.
func (r *Repository) CreateUser(ctx context.Context, draft model.Draft) (model.User, error) {
	query := `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
		RETURNING id
	`

	var id int64
	if err := r.pool.QueryRow(ctx, query, draft.Name, draft.Email).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return draft.WithID(id), nil
}

// UpdateUser replaces the name and email of an existing user.
func (r *Repository) UpdateUser(ctx context.Context, user model.User) (model.User, error) {
	query := `
		UPDATE users
		SET name = $2, email = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, user.ID, user.Name, user.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.User{}, ErrUserNotFound
	}

	return user, nil
}

// DeleteUser removes a user by id.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
