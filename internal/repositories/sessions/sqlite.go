package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vaultscribe/vaultscribe/internal/common"
	"github.com/vaultscribe/vaultscribe/internal/dbx"
	"github.com/vaultscribe/vaultscribe/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
// expires_at is stored as Unix seconds.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, session *models.Session) error {
	query := `insert into sessions (token, email, expires_at) values (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, session.Token, session.Email, session.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, token string) (*models.Session, error) {
	query := `select token, email, expires_at from sessions where token=?`
	row := r.db.QueryRowContext(ctx, query, token)

	s := &models.Session{}
	var expiresAt int64
	if err := row.Scan(&s.Token, &s.Email, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select session: %w", err)
	}
	s.ExpiresAt = time.Unix(expiresAt, 0)
	return s, nil
}

// Delete is idempotent: removing an absent token succeeds.
func (r *SQLiteRepository) Delete(ctx context.Context, token string) error {
	query := `delete from sessions where token=?`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `delete from sessions where expires_at <= ?`
	res, err := r.db.ExecContext(ctx, query, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra, nil
}
