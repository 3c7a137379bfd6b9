// Package users provides the persistence layer for account rows.
//
// # Overview
//
// The package defines a Repository interface for the account operations the
// auth flows need (lookup by email, creation, hash and secret updates). A
// SQLite-backed implementation (SQLiteRepository) persists data using a
// dbx.DBTX (either *sql.DB or *sql.Tx).
//
// # Data Model
//
// Each row stores the unique email, the encoded password hash (the encoding
// tags its own scheme), and the TOTP secret. The secret column is NULL until
// enrollment commits; an empty TOTPSecret field maps to NULL and back.
//
// # Errors
//
// Missing rows surface as common.ErrNotFound and duplicate emails as
// common.ErrDuplicateUser, so callers can match with errors.Is. All other
// database failures are returned wrapped with context.
//
// Typical Usage
//
//	repo := users.NewSQLiteRepository(db)
//	u, _ := repo.GetByEmail(ctx, "a@x.com")
//	_ = repo.UpdatePasswordHash(ctx, u.Email, newHash)
package users
