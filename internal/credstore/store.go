// Package credstore persists saved login credentials so the bridge can
// re-login silently after a restart.
package credstore

import (
	"context"

	"github.com/chartsbridge/internal/domain"
)

// Repository defines the interface for persisting pupil credentials.
type Repository interface {
	// Load retrieves the saved credentials, or nil when none are stored.
	Load(ctx context.Context) (*domain.SavedCredentials, error)

	// Save stores the credentials, replacing any previous ones.
	Save(ctx context.Context, creds *domain.SavedCredentials) error

	// Clear removes the saved credentials. Clearing an empty store is not
	// an error.
	Clear(ctx context.Context) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close closes the underlying database.
	Close() error
}
