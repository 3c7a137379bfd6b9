package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/vaultscribe/vaultscribe/internal/auth"
	"github.com/vaultscribe/vaultscribe/internal/common"
	"github.com/vaultscribe/vaultscribe/internal/models"
)

// stubTextInputs replaces getSimpleText with a script; each call pops the
// next line, EOF after the last.
func stubTextInputs(t *testing.T, lines ...string) {
	t.Helper()
	orig := getSimpleText
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		return line, nil
	}
	t.Cleanup(func() { getSimpleText = orig })
}

func stubPasswords(t *testing.T, passwords ...string) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		pw := passwords[0]
		passwords = passwords[1:]
		return []byte(pw), nil
	}
	t.Cleanup(func() { getPassword = orig })
}

// fakeAuth records calls and pops scripted errors; an exhausted error queue
// means success.
type fakeAuth struct {
	enr                     *auth.Enrollment
	signUpErr               error
	signUpEmail, signUpPass string

	enrollCodes []string
	enrollErrs  []error

	abandonedID string

	ch                      *auth.Challenge
	signInErr               error
	signInEmail, signInPass string

	sess         *models.Session
	authCodes    []string
	authCodeErrs []error

	validateEmail string
	validateErr   error

	signOutToken string
	signOutErr   error

	changeEmail, changeOld, changeNew string
	changeErr                         error

	reEnr                 *auth.Enrollment
	reEnrErr              error
	reEnrEmail, reEnrPass string
}

func popErr(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (f *fakeAuth) SignUp(_ context.Context, email, plaintext string) (*auth.Enrollment, error) {
	f.signUpEmail, f.signUpPass = email, plaintext
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.enr, nil
}

func (f *fakeAuth) SubmitEnrollmentCode(_ context.Context, _ string, code string) error {
	f.enrollCodes = append(f.enrollCodes, code)
	return popErr(&f.enrollErrs)
}

func (f *fakeAuth) AbandonEnrollment(_ context.Context, enrollmentID string) {
	f.abandonedID = enrollmentID
}

func (f *fakeAuth) SignIn(_ context.Context, email, plaintext string) (*auth.Challenge, error) {
	f.signInEmail, f.signInPass = email, plaintext
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.ch, nil
}

func (f *fakeAuth) SubmitAuthCode(_ context.Context, _ string, code string) (*models.Session, error) {
	f.authCodes = append(f.authCodes, code)
	if err := popErr(&f.authCodeErrs); err != nil {
		return nil, err
	}
	return f.sess, nil
}

func (f *fakeAuth) ValidateSession(_ context.Context, _ string) (string, error) {
	if f.validateErr != nil {
		return "", f.validateErr
	}
	return f.validateEmail, nil
}

func (f *fakeAuth) SignOut(_ context.Context, token string) error {
	f.signOutToken = token
	return f.signOutErr
}

func (f *fakeAuth) ChangePassword(_ context.Context, email, oldPlaintext, newPlaintext string) error {
	f.changeEmail, f.changeOld, f.changeNew = email, oldPlaintext, newPlaintext
	return f.changeErr
}

func (f *fakeAuth) StartTOTPReEnrollment(_ context.Context, email, plaintext string) (*auth.Enrollment, error) {
	f.reEnrEmail, f.reEnrPass = email, plaintext
	if f.reEnrErr != nil {
		return nil, f.reEnrErr
	}
	return f.reEnr, nil
}

func testSession() *models.Session {
	return &models.Session{Token: "tok", Email: "alice@x.com", ExpiresAt: time.Now().Add(time.Hour)}
}

func TestSignUp_Success(t *testing.T) {
	f := &fakeAuth{enr: &auth.Enrollment{ID: "e1", Email: "alice@x.com", Secret: "SECRET"}}
	a := &App{auth: f}

	stubTextInputs(t, "alice@x.com", "123456")
	stubPasswords(t, "Str0ng!Pw")

	if err := a.SignUp(context.Background()); err != nil {
		t.Fatalf("SignUp err: %v", err)
	}
	if f.signUpEmail != "alice@x.com" || f.signUpPass != "Str0ng!Pw" {
		t.Fatalf("credentials mismatch: %q %q", f.signUpEmail, f.signUpPass)
	}
	if len(f.enrollCodes) != 1 || f.enrollCodes[0] != "123456" {
		t.Fatalf("codes mismatch: %v", f.enrollCodes)
	}
}

func TestSignUp_WrongCodeThenCancel(t *testing.T) {
	f := &fakeAuth{
		enr:        &auth.Enrollment{ID: "e1", Email: "alice@x.com"},
		enrollErrs: []error{common.ErrInvalidCode},
	}
	a := &App{auth: f}

	stubTextInputs(t, "alice@x.com", "111111", "")
	stubPasswords(t, "Str0ng!Pw")

	if err := a.SignUp(context.Background()); err != nil {
		t.Fatalf("SignUp err: %v", err)
	}
	if f.abandonedID != "e1" {
		t.Fatalf("enrollment not abandoned: %q", f.abandonedID)
	}
	if len(f.enrollCodes) != 1 {
		t.Fatalf("codes mismatch: %v", f.enrollCodes)
	}
}

func TestSignUp_ServiceError(t *testing.T) {
	f := &fakeAuth{signUpErr: common.ErrDuplicateUser}
	a := &App{auth: f}

	stubTextInputs(t, "alice@x.com")
	stubPasswords(t, "Str0ng!Pw")

	err := a.SignUp(context.Background())
	if !errors.Is(err, common.ErrDuplicateUser) {
		t.Fatalf("want ErrDuplicateUser, got %v", err)
	}
	if len(f.enrollCodes) != 0 {
		t.Fatalf("unexpected code submissions: %v", f.enrollCodes)
	}
}

func TestSignIn_Success(t *testing.T) {
	f := &fakeAuth{ch: &auth.Challenge{ID: "c1"}, sess: testSession()}
	a := &App{auth: f}

	stubTextInputs(t, "alice@x.com", "654321")
	stubPasswords(t, "Str0ng!Pw")

	if err := a.SignIn(context.Background()); err != nil {
		t.Fatalf("SignIn err: %v", err)
	}
	if !a.isSignedIn() || a.email != "alice@x.com" {
		t.Fatalf("session not recorded: %+v", a.session)
	}
	if len(f.authCodes) != 1 || f.authCodes[0] != "654321" {
		t.Fatalf("codes mismatch: %v", f.authCodes)
	}
}

func TestSignIn_BadCredentials(t *testing.T) {
	f := &fakeAuth{signInErr: common.ErrInvalidCredentials}
	a := &App{auth: f}

	stubTextInputs(t, "alice@x.com")
	stubPasswords(t, "Wr0ng!Pwd")

	err := a.SignIn(context.Background())
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
	if a.isSignedIn() {
		t.Fatal("must not be signed in")
	}
}

func TestSignIn_RetriesUntilBudgetSpent(t *testing.T) {
	f := &fakeAuth{
		ch:           &auth.Challenge{ID: "c1"},
		authCodeErrs: []error{common.ErrInvalidCode, common.ErrInvalidCode, common.ErrTooManyAttempts},
	}
	a := &App{auth: f}

	stubTextInputs(t, "alice@x.com", "000001", "000002", "000003")
	stubPasswords(t, "Str0ng!Pw")

	err := a.SignIn(context.Background())
	if !errors.Is(err, common.ErrTooManyAttempts) {
		t.Fatalf("want ErrTooManyAttempts, got %v", err)
	}
	if a.isSignedIn() {
		t.Fatal("must not be signed in")
	}
	if len(f.authCodes) != 3 {
		t.Fatalf("codes mismatch: %v", f.authCodes)
	}
}

func TestSignIn_ProvisionsMissingAuthenticator(t *testing.T) {
	f := &fakeAuth{
		signInErr: common.ErrTOTPNotConfigured,
		reEnr:     &auth.Enrollment{ID: "e2", Email: "old@x.com"},
	}
	a := &App{auth: f}

	stubTextInputs(t, "old@x.com", "123456")
	stubPasswords(t, "Legacy9!pw")

	if err := a.SignIn(context.Background()); err != nil {
		t.Fatalf("SignIn err: %v", err)
	}
	if f.reEnrEmail != "old@x.com" || f.reEnrPass != "Legacy9!pw" {
		t.Fatalf("re-enrollment credentials mismatch: %q %q", f.reEnrEmail, f.reEnrPass)
	}
	if len(f.enrollCodes) != 1 {
		t.Fatalf("codes mismatch: %v", f.enrollCodes)
	}
	// Provisioning does not sign the user in.
	if a.isSignedIn() {
		t.Fatal("must not be signed in")
	}
}

func TestSignOut(t *testing.T) {
	f := &fakeAuth{}
	a := &App{auth: f, session: testSession(), email: "alice@x.com"}

	if err := a.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut err: %v", err)
	}
	if f.signOutToken != "tok" {
		t.Fatalf("token mismatch: %q", f.signOutToken)
	}
	if a.isSignedIn() || a.email != "" {
		t.Fatal("session not cleared")
	}
}

func TestSignOut_ErrorKeepsSession(t *testing.T) {
	f := &fakeAuth{signOutErr: errors.New("revoke-fail")}
	a := &App{auth: f, session: testSession(), email: "alice@x.com"}

	if err := a.SignOut(context.Background()); err == nil {
		t.Fatal("want error from SignOut")
	}
	if !a.isSignedIn() {
		t.Fatal("session dropped despite failed revoke")
	}
}
