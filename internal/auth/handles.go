package auth

import "time"

type enrollmentMode int

const (
	modeSignUp enrollmentMode = iota
	modeReEnroll
)

// Enrollment is the transient state of one enrollment attempt. It exists only
// in process memory until the first valid code commits it; abandoning the
// attempt, letting it expire, or exiting the process discards it without a
// trace in the store.
type Enrollment struct {
	ID    string
	Email string

	// Secret and ProvisioningURI are what the presentation layer renders
	// (QR code or manual entry) for the authenticator app.
	Secret          string
	ProvisioningURI string

	mode         enrollmentMode
	passwordHash string
	expiresAt    time.Time
}

// Challenge tracks one password-verified sign-in that still awaits its second
// factor. It carries a bounded budget of code attempts.
type Challenge struct {
	ID string

	email     string
	attempts  int
	expiresAt time.Time
}
