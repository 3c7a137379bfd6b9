// Package models defines the persisted account and session types.
package models

// User is one account row. TOTPSecret is empty until enrollment commits;
// after that it holds the shared secret in base32.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	TOTPSecret   string
}
