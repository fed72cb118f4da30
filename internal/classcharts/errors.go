package classcharts

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when an authenticated operation is attempted
	// without an active session.
	ErrNoSession = errors.New("no active session")

	// ErrSessionExpired is returned when the backend reports an expired
	// session even after a forced refresh and retry.
	ErrSessionExpired = errors.New("session expired")

	// ErrIncorrectDOB and ErrIncorrectPupilCode are login failures the
	// backend reports as HTTP 200 with a human-readable message in the body.
	ErrIncorrectDOB       = errors.New("the date of birth provided is incorrect")
	ErrIncorrectPupilCode = errors.New("the pupil code provided is incorrect")

	// ErrNoData is returned on a 200 response with an empty body.
	ErrNoData = errors.New("empty response body")

	// ErrInvalidResponse is returned when a response body cannot be parsed
	// as the expected envelope.
	ErrInvalidResponse = errors.New("invalid response from server")

	// ErrMissingUserData is returned when a well-formed response is missing
	// required fields.
	ErrMissingUserData = errors.New("response missing required data")
)

// ServerError is a non-200 status from the backend.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// RequestError wraps request construction or transport failures.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
