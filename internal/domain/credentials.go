package domain

import (
	"time"
)

// SavedCredentials are the pupil's login details persisted across restarts to
// support silent re-login. Cleared on logout or when the backend rejects them.
type SavedCredentials struct {
	PupilCode   string
	DateOfBirth time.Time
	UpdatedAt   time.Time
}
