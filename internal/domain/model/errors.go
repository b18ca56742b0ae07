package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthenticated is raised locally when an operation requires a
// credential and none is present. It is never the result of a network call.
var ErrUnauthenticated = errors.New("authentication required: please sign in")

// ErrSessionExpired is raised when the backend rejects the credential with a
// 401. The credential is cleared as a side effect before this surfaces.
var ErrSessionExpired = errors.New("session expired: please sign in again")

// ValidationError reports a request the backend (or a local precondition)
// rejected as malformed. Fields names the offending fields when known.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
	}
	return e.Message
}

// ServerError reports a 5xx response from the backend.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// NetworkError reports that no usable response reached the client
// (DNS failure, refused connection, timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("could not reach server: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
