// Package domain contains core domain types for the ClassCharts bridge.
package domain

import (
	"time"
)

// Session holds the state of an authenticated ClassCharts session. The token
// is an opaque credential sent as a Basic-scheme Authorization header; the
// backend may rotate it on every heartbeat.
type Session struct {
	Token           string
	UserID          int
	FirstName       string
	LastRefreshedAt time.Time
}

// Active returns true if the session carries both a token and a user id.
// The two are always set together; a session with only one is a bug.
func (s Session) Active() bool {
	return s.Token != "" && s.UserID != 0
}

// Stale reports whether the session needs a heartbeat before it can be used
// for an authenticated call.
func (s Session) Stale(interval time.Duration, now time.Time) bool {
	if s.LastRefreshedAt.IsZero() {
		return true
	}
	return now.Sub(s.LastRefreshedAt) >= interval
}
