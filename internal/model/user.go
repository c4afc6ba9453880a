// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"strings"
)

// User is a user record as stored by the API and mirrored by the console.
// The ID is always assigned by the server.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Draft is the payload for creating a user. It carries no identifier.
type Draft struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// Draft returns the editable fields of the user.
func (u User) Draft() Draft {
	return Draft{Name: u.Name, Email: u.Email}
}

// WithID builds a full record from a draft and an existing identifier.
func (d Draft) WithID(id int64) User {
	return User{ID: id, Name: d.Name, Email: d.Email}
}

// Normalize trims surrounding whitespace from every field.
func (d Draft) Normalize() Draft {
	return Draft{
		Name:  strings.TrimSpace(d.Name),
		Email: strings.TrimSpace(d.Email),
	}
}

// Complete reports whether both required fields are non-empty.
func (d Draft) Complete() bool {
	n := d.Normalize()
	return n.Name != "" && n.Email != ""
}

// Matches reports whether the lowercased term is a substring of the name or
// email, ignoring case. An empty term matches every user.
func (u User) Matches(term string) bool {
	if term == "" {
		return true
	}
	t := strings.ToLower(term)
	return strings.Contains(strings.ToLower(u.Name), t) ||
		strings.Contains(strings.ToLower(u.Email), t)
}

// Initial returns the uppercased first letter of the name, used as an avatar.
func (u User) Initial() string {
	for _, r := range u.Name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// ParseID parses a user identifier from its decimal form.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
