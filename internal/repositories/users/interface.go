package users

import (
	"context"

	"github.com/vaultscribe/vaultscribe/internal/models"
)

// Repository describes the account operations used by the auth flows.
// Implementations are backed by a local SQLite database.
type Repository interface {
	// GetByEmail returns the account with the given email, or
	// common.ErrNotFound when no such row exists.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Create inserts a new account row and returns it with ID populated.
	// A duplicate email yields common.ErrDuplicateUser.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// UpdatePasswordHash replaces the stored hash for the given email. It is
	// used both by password changes and by silent legacy-hash migration.
	// Returns common.ErrNotFound when no row was updated.
	UpdatePasswordHash(ctx context.Context, email string, passwordHash string) error

	// SetTOTPSecret overwrites the stored TOTP secret for the given email.
	// Only explicit re-enrollment calls this; first enrollment writes the
	// secret as part of Create. Returns common.ErrNotFound when no row was
	// updated.
	SetTOTPSecret(ctx context.Context, email string, secret string) error
}
