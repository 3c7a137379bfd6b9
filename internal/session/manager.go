// Package session issues, validates, and revokes login sessions.
//
// Tokens are opaque 256-bit random values in URL-safe base64; all session
// state lives in the sessions table, so restarts keep sessions alive and
// revocation is a row delete. Expired rows are removed lazily: on the next
// validation touch and in bulk whenever a new session is issued.
package session

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/vaultscribe/vaultscribe/internal/common"
	"github.com/vaultscribe/vaultscribe/internal/dbx"
	"github.com/vaultscribe/vaultscribe/internal/logging"
	"github.com/vaultscribe/vaultscribe/internal/models"
	"github.com/vaultscribe/vaultscribe/internal/repositories/sessions"
)

const tokenBytes = 32

// Manager owns the session lifecycle over the sessions table.
type Manager struct {
	db      *sql.DB
	repoFor func(db dbx.DBTX) sessions.Repository
	ttl     time.Duration
	logger  logging.Logger

	// Now is the clock used for expiry decisions. Replace before use in
	// tests only.
	Now func() time.Time
}

// NewManager returns a Manager issuing sessions that live for ttl.
func NewManager(db *sql.DB, ttl time.Duration, logger logging.Logger) *Manager {
	return &Manager{
		db:      db,
		repoFor: func(d dbx.DBTX) sessions.Repository { return sessions.NewSQLiteRepository(d) },
		ttl:     ttl,
		logger:  logger,
		Now:     time.Now,
	}
}

// Issue creates a session for email and persists it. The insert shares a
// transaction with a sweep of already-expired rows, so the table cannot grow
// without bound under normal use.
func (m *Manager) Issue(ctx context.Context, email string) (*models.Session, error) {
	raw, err := common.GenerateRandBytes(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := m.Now()
	session := &models.Session{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		Email:     email,
		ExpiresAt: now.Add(m.ttl),
	}

	err = dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := m.repoFor(tx)
		removed, err := repo.DeleteExpired(ctx, now)
		if err != nil {
			return err
		}
		if removed > 0 {
			m.logger.Info(ctx, "swept expired sessions", "count", removed)
		}
		return repo.Create(ctx, session)
	})
	if err != nil {
		return nil, &common.PersistenceError{Op: "sessions.issue", Err: err}
	}

	return session, nil
}

// Validate resolves token to the owning email. An expired session yields
// common.ErrSessionExpired and its row is removed on the spot; an unknown
// token yields common.ErrSessionNotFound.
func (m *Manager) Validate(ctx context.Context, token string) (string, error) {
	repo := m.repoFor(m.db)

	session, err := repo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrSessionNotFound
		}
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	if session.ExpiredAt(m.Now()) {
		if err := repo.Delete(ctx, token); err != nil {
			m.logger.Warn(ctx, "failed to remove expired session", "error", err)
		}
		return "", common.ErrSessionExpired
	}

	return session.Email, nil
}

// Revoke removes the session. Revoking an unknown or already-revoked token
// succeeds.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.repoFor(m.db).Delete(ctx, token); err != nil {
		return &common.PersistenceError{Op: "sessions.revoke", Err: err}
	}
	return nil
}

// SweepExpired removes every expired row and reports how many went. It backs
// the startup housekeeping pass.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	return m.repoFor(m.db).DeleteExpired(ctx, m.Now())
}
