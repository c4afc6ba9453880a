package remote

import (
	"errors"
	"fmt"
)

// ErrRemote matches every failure returned by Client, network or server.
var ErrRemote = errors.New("remote call failed")

// NetworkError is a transport-level failure: the request never produced a
// response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrRemote) true.
func (e *NetworkError) Is(target error) bool { return target == ErrRemote }

// ServerError is a non-2xx response.
type ServerError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// Is makes errors.Is(err, ErrRemote) true.
func (e *ServerError) Is(target error) bool { return target == ErrRemote }
