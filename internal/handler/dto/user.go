// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/userdesk/userdesk/internal/model"
)

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateUserRequest represents the request body for replacing a user.
// ID is optional; when present it must match the path.
type UpdateUserRequest struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Draft returns the editable fields of the request.
func (r CreateUserRequest) Draft() model.Draft {
	return model.Draft{Name: r.Name, Email: r.Email}
}

// Draft returns the editable fields of the request.
func (r UpdateUserRequest) Draft() model.Draft {
	return model.Draft{Name: r.Name, Email: r.Email}
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(u model.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// ToUserListResponse converts users to a bare JSON array, never null.
func ToUserListResponse(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return out
}

// FieldError names one rejected field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code"`
	Fields []FieldError `json:"fields,omitempty"`
}
