// Package auth is the orchestrator for the two credential flows: enrollment
// (email + password + TOTP provisioning) and sign-in (password, then a code,
// then a session token). It owns all transient flow state and is the only
// writer of account rows; every flow transition passes through one lock, so
// read-modify-write sequences against the store never interleave.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vaultscribe/vaultscribe/internal/common"
	"github.com/vaultscribe/vaultscribe/internal/logging"
	"github.com/vaultscribe/vaultscribe/internal/models"
	"github.com/vaultscribe/vaultscribe/internal/password"
	"github.com/vaultscribe/vaultscribe/internal/session"
	"github.com/vaultscribe/vaultscribe/internal/store"
	"github.com/vaultscribe/vaultscribe/internal/totp"
)

const (
	enrollmentTTL   = 10 * time.Minute
	challengeTTL    = 5 * time.Minute
	maxCodeAttempts = 5
)

// Service wires the hasher, TOTP engine, session manager, and store into the
// public auth API.
type Service struct {
	store    *store.Store
	hasher   *password.Hasher
	totp     *totp.Engine
	sessions *session.Manager
	logger   logging.Logger

	mu           sync.Mutex
	enrollments  map[string]*Enrollment
	challenges   map[string]*Challenge
	lastCounters map[string]int64

	// Now is the clock for handle expiry and code verification. Replace
	// before use in tests only.
	Now func() time.Time
}

// NewService constructs the orchestrator.
func NewService(st *store.Store, hasher *password.Hasher, engine *totp.Engine, sessions *session.Manager, logger logging.Logger) *Service {
	return &Service{
		store:        st,
		hasher:       hasher,
		totp:         engine,
		sessions:     sessions,
		logger:       logger,
		enrollments:  make(map[string]*Enrollment),
		challenges:   make(map[string]*Challenge),
		lastCounters: make(map[string]int64),
		Now:          time.Now,
	}
}

// SignUp validates the address and password, rejects taken emails, and opens
// an enrollment: the password hash is precomputed and a fresh TOTP secret
// generated, but nothing is written to the store until the first valid code
// arrives at SubmitEnrollmentCode.
func (s *Service) SignUp(ctx context.Context, email, plaintext string) (*Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, common.ErrInvalidEmail
	}
	if violations := CheckPasswordStrength(plaintext); len(violations) > 0 {
		return nil, &common.ValidationError{Field: "password", Violations: violations}
	}

	if _, err := s.store.Users.GetByEmail(ctx, email); err == nil {
		return nil, common.ErrDuplicateUser
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.openEnrollment(ctx, email, modeSignUp, hash)
}

// StartTOTPReEnrollment opens an enrollment that will overwrite the stored
// TOTP secret. It is password-gated; the current secret stays valid until the
// first code against the new secret commits.
func (s *Service) StartTOTPReEnrollment(ctx context.Context, email, plaintext string) (*Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = NormalizeEmail(email)

	user, err := s.loadUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.verifyPassword(ctx, user, plaintext); err != nil {
		return nil, err
	}

	return s.openEnrollment(ctx, email, modeReEnroll, "")
}

// openEnrollment registers the transient handle. Callers hold s.mu.
func (s *Service) openEnrollment(ctx context.Context, email string, mode enrollmentMode, passwordHash string) (*Enrollment, error) {
	secret, err := s.totp.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	e := &Enrollment{
		ID:              uuid.NewString(),
		Email:           email,
		Secret:          secret,
		ProvisioningURI: s.totp.ProvisioningURI(secret, email),
		mode:            mode,
		passwordHash:    passwordHash,
		expiresAt:       s.Now().Add(enrollmentTTL),
	}
	s.enrollments[e.ID] = e

	s.logger.Info(ctx, "enrollment started", "email", email, "reenroll", mode == modeReEnroll)
	return e, nil
}

// SubmitEnrollmentCode commits the enrollment when the code matches. A wrong
// code leaves the handle alive for another try. First enrollment inserts the
// account row in a single write; re-enrollment overwrites the stored secret.
func (s *Service) SubmitEnrollmentCode(ctx context.Context, enrollmentID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.enrollment(enrollmentID)
	if e == nil {
		return common.ErrEnrollmentNotFound
	}

	ok, _, err := s.totp.VerifyCode(e.Secret, code, s.Now())
	if err != nil {
		return fmt.Errorf("failed to verify code: %w", err)
	}
	if !ok {
		s.logger.Warn(ctx, "enrollment code rejected", "email", e.Email)
		return common.ErrInvalidCode
	}

	switch e.mode {
	case modeSignUp:
		_, err = s.store.Users.Create(ctx, &models.User{
			Email:        e.Email,
			PasswordHash: e.passwordHash,
			TOTPSecret:   e.Secret,
		})
		if errors.Is(err, common.ErrDuplicateUser) {
			delete(s.enrollments, e.ID)
			return err
		}
		if err != nil {
			return &common.PersistenceError{Op: "users.create", Err: err}
		}
	case modeReEnroll:
		err = s.store.Users.SetTOTPSecret(ctx, e.Email, e.Secret)
		if errors.Is(err, common.ErrNotFound) {
			delete(s.enrollments, e.ID)
			return err
		}
		if err != nil {
			return &common.PersistenceError{Op: "users.set_totp_secret", Err: err}
		}
	}

	delete(s.enrollments, e.ID)

	s.logger.Info(ctx, "enrollment committed", "email", e.Email, "reenroll", e.mode == modeReEnroll)
	return nil
}

// AbandonEnrollment discards a pending enrollment. Discarding an unknown or
// already-committed handle is a no-op.
func (s *Service) AbandonEnrollment(ctx context.Context, enrollmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.enrollments[enrollmentID]; ok {
		delete(s.enrollments, enrollmentID)
		s.logger.Info(ctx, "enrollment abandoned", "email", e.Email)
	}
}

// SignIn verifies the password and opens a second-factor challenge. Unknown
// emails and wrong passwords are indistinguishable to the caller. A match
// against a legacy or under-parameterized hash is rehashed and persisted
// before the flow proceeds.
func (s *Service) SignIn(ctx context.Context, email, plaintext string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = NormalizeEmail(email)

	user, err := s.loadUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.verifyPassword(ctx, user, plaintext); err != nil {
		return nil, err
	}

	if user.TOTPSecret == "" {
		return nil, common.ErrTOTPNotConfigured
	}

	c := &Challenge{
		ID:        uuid.NewString(),
		email:     email,
		expiresAt: s.Now().Add(challengeTTL),
	}
	s.challenges[c.ID] = c

	s.logger.Info(ctx, "password accepted, second factor pending", "email", email)
	return c, nil
}

// SubmitAuthCode checks the second factor and issues a session. Wrong codes
// consume attempts from the challenge budget; an exhausted challenge refuses
// every further code, correct or not. A code from an already-consumed step is
// treated as wrong.
func (s *Service) SubmitAuthCode(ctx context.Context, challengeID, code string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[challengeID]
	if !ok {
		return nil, common.ErrChallengeNotFound
	}
	if !s.Now().Before(c.expiresAt) {
		delete(s.challenges, challengeID)
		return nil, common.ErrChallengeExpired
	}
	if c.attempts >= maxCodeAttempts {
		return nil, common.ErrTooManyAttempts
	}

	user, err := s.store.Users.GetByEmail(ctx, c.email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			delete(s.challenges, challengeID)
			return nil, common.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	matched, counter, err := s.totp.VerifyCode(user.TOTPSecret, code, s.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to verify code: %w", err)
	}

	if matched {
		if last, seen := s.lastCounters[c.email]; seen && counter <= last {
			matched = false // replay inside the window
		}
	}

	if !matched {
		c.attempts++
		s.logger.Warn(ctx, "auth code rejected", "email", c.email, "attempts", c.attempts)
		if c.attempts >= maxCodeAttempts {
			return nil, common.ErrTooManyAttempts
		}
		return nil, common.ErrInvalidCode
	}

	s.lastCounters[c.email] = counter
	delete(s.challenges, challengeID)

	sess, err := s.sessions.Issue(ctx, c.email)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "session issued", "email", c.email)
	return sess, nil
}

// ValidateSession resolves a token to its owning email.
func (s *Service) ValidateSession(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Validate(ctx, token)
}

// SignOut revokes the session. Signing out twice is fine.
func (s *Service) SignOut(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Revoke(ctx, token); err != nil {
		return err
	}
	s.logger.Info(ctx, "session revoked")
	return nil
}

// ChangePassword replaces the password after verifying the current one and
// checking the replacement against the strength rules.
func (s *Service) ChangePassword(ctx context.Context, email, oldPlaintext, newPlaintext string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = NormalizeEmail(email)

	user, err := s.loadUser(ctx, email)
	if err != nil {
		return err
	}
	if v := s.hasher.Verify(oldPlaintext, user.PasswordHash); !v.Match {
		return common.ErrInvalidCredentials
	}
	if violations := CheckPasswordStrength(newPlaintext); len(violations) > 0 {
		return &common.ValidationError{Field: "password", Violations: violations}
	}

	hash, err := s.hasher.Hash(newPlaintext)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.Users.UpdatePasswordHash(ctx, email, hash); err != nil {
		return &common.PersistenceError{Op: "users.update_password_hash", Err: err}
	}

	s.logger.Info(ctx, "password changed", "email", email)
	return nil
}

// loadUser maps a missing row to the generic credentials error. Callers hold
// s.mu.
func (s *Service) loadUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// verifyPassword checks plaintext against the stored hash and, when the hash
// is legacy or under-parameterized, rehashes and persists the replacement
// before reporting success. A failed persist aborts the flow. Callers hold
// s.mu.
func (s *Service) verifyPassword(ctx context.Context, user *models.User, plaintext string) error {
	v := s.hasher.Verify(plaintext, user.PasswordHash)
	if !v.Match {
		s.logger.Warn(ctx, "password rejected", "email", user.Email)
		return common.ErrInvalidCredentials
	}
	if !v.NeedsMigration {
		return nil
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("failed to rehash password: %w", err)
	}
	if err := s.store.Users.UpdatePasswordHash(ctx, user.Email, hash); err != nil {
		return &common.PersistenceError{Op: "users.update_password_hash", Err: err}
	}
	user.PasswordHash = hash

	s.logger.Info(ctx, "password hash migrated", "email", user.Email)
	return nil
}

// enrollment returns the live handle or nil, purging it if expired. Callers
// hold s.mu.
func (s *Service) enrollment(id string) *Enrollment {
	e, ok := s.enrollments[id]
	if !ok {
		return nil
	}
	if !s.Now().Before(e.expiresAt) {
		delete(s.enrollments, id)
		return nil
	}
	return e
}
