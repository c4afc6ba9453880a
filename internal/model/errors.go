package model

import "errors"

// ErrInvalidID is returned when a user identifier is not a positive integer.
var ErrInvalidID = errors.New("invalid user id")
