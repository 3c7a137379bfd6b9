package sessions

import (
	"context"
	"time"

	"github.com/vaultscribe/vaultscribe/internal/models"
)

// Repository describes CRUD operations for session rows. Expiry decisions
// belong to the session manager; this layer only stores and removes rows.
type Repository interface {
	// Create inserts a new session row.
	Create(ctx context.Context, session *models.Session) error

	// Get returns the session with the given token, or common.ErrNotFound.
	Get(ctx context.Context, token string) (*models.Session, error)

	// Delete removes the session with the given token. Deleting an absent
	// token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes every session with expires_at at or before now
	// and returns the number of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
