package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vaultscribe/vaultscribe/internal/common"
	"github.com/vaultscribe/vaultscribe/internal/dbx"
	"github.com/vaultscribe/vaultscribe/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByEmail returns a single account row. A NULL totp_secret maps to "".
func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `select id, email, password_hash, totp_secret from users where email=?`
	row := r.db.QueryRowContext(ctx, query, email)

	u := &models.User{}
	var secret sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &secret); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	u.TOTPSecret = secret.String
	return u, nil
}

// Create inserts the account in one statement. When TOTPSecret is set the row
// is born fully enrolled; this is the path first enrollment commits through.
func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `insert into users (email, password_hash, totp_secret) values (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		user.Email, user.PasswordHash, nullableString(user.TOTPSecret))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, common.ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted id: %w", err)
	}
	user.ID = id
	return user, nil
}

// UpdatePasswordHash expects exactly one row to be affected.
func (r *SQLiteRepository) UpdatePasswordHash(ctx context.Context, email string, passwordHash string) error {
	query := `update users set password_hash=? where email=?`
	res, err := r.db.ExecContext(ctx, query, passwordHash, email)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

// SetTOTPSecret overwrites the stored secret (explicit re-enrollment).
func (r *SQLiteRepository) SetTOTPSecret(ctx context.Context, email string, secret string) error {
	query := `update users set totp_secret=? where email=?`
	res, err := r.db.ExecContext(ctx, query, nullableString(secret), email)
	if err != nil {
		return fmt.Errorf("failed to update totp secret: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
