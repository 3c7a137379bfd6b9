package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vaultscribe/vaultscribe/internal/auth"
	"github.com/vaultscribe/vaultscribe/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// SignUp prompts for an email and password, opens an enrollment, and walks
// the user through confirming the first authenticator code. Nothing is stored
// until that code matches; cancelling leaves no trace.
//
// The password byte slice is wiped before returning.
func (a *App) SignUp(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	pw, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	enr, err := a.auth.SignUp(ctx, email, string(pw))
	if err != nil {
		reportAuthError(err)
		return err
	}

	committed, err := a.confirmEnrollment(ctx, enr)
	if err != nil || !committed {
		return err
	}

	fmt.Println("Account created. You can now login.")
	return nil
}

// SignIn prompts for credentials, then loops on the authenticator code until
// a session is issued, the attempt budget runs out, or the user cancels.
//
// An account from before the authenticator rollout has no secret yet; in that
// case the handler provisions one (password-gated) instead of signing in.
func (a *App) SignIn(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	pw, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	ch, err := a.auth.SignIn(ctx, email, string(pw))
	if errors.Is(err, common.ErrTOTPNotConfigured) {
		fmt.Println("This account has no authenticator yet, setting one up.")
		enr, err := a.auth.StartTOTPReEnrollment(ctx, email, string(pw))
		if err != nil {
			reportAuthError(err)
			return err
		}
		committed, err := a.confirmEnrollment(ctx, enr)
		if err != nil || !committed {
			return err
		}
		fmt.Println("Authenticator configured. Run login again.")
		return nil
	}
	if err != nil {
		reportAuthError(err)
		return err
	}

	for {
		code, err := getSimpleText(a.reader, "Enter the 6-digit code (empty line to cancel)", os.Stdout)
		if err != nil {
			return err
		}
		if code == "" {
			fmt.Println("Sign-in cancelled.")
			return nil
		}

		sess, err := a.auth.SubmitAuthCode(ctx, ch.ID, code)
		switch {
		case err == nil:
			a.session = sess
			a.email = sess.Email
			fmt.Println("Signed in as " + sess.Email)
			return nil
		case errors.Is(err, common.ErrInvalidCode):
			fmt.Println("That code did not match, try again.")
		default:
			reportAuthError(err)
			return err
		}
	}
}

// SignOut revokes the current session and forgets the token.
func (a *App) SignOut(ctx context.Context) error {
	if !a.isSignedIn() {
		fmt.Println("Not signed in.")
		return nil
	}

	if err := a.auth.SignOut(ctx, a.session.Token); err != nil {
		reportAuthError(err)
		return err
	}
	a.session = nil
	a.email = ""

	fmt.Println("Signed out.")
	return nil
}

// confirmEnrollment renders the provisioning details and loops on code entry
// until the enrollment commits, the user cancels, or it fails for good.
// Returns whether the enrollment committed.
func (a *App) confirmEnrollment(ctx context.Context, enr *auth.Enrollment) (bool, error) {
	fmt.Println("Add this account to your authenticator app:")
	fmt.Println("  URI:    " + enr.ProvisioningURI)
	fmt.Println("  Secret: " + enr.Secret)

	for {
		code, err := getSimpleText(a.reader, "Enter the 6-digit code (empty line to cancel)", os.Stdout)
		if err != nil {
			a.auth.AbandonEnrollment(ctx, enr.ID)
			return false, err
		}
		if code == "" {
			a.auth.AbandonEnrollment(ctx, enr.ID)
			fmt.Println("Cancelled, nothing was saved.")
			return false, nil
		}

		err = a.auth.SubmitEnrollmentCode(ctx, enr.ID, code)
		switch {
		case err == nil:
			fmt.Println("Authenticator confirmed.")
			return true, nil
		case errors.Is(err, common.ErrInvalidCode):
			fmt.Println("That code did not match, try again.")
		default:
			reportAuthError(err)
			return false, err
		}
	}
}

// reportAuthError prints a service error in a user-facing form. Password
// rule violations are listed one per line.
func reportAuthError(err error) {
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		fmt.Println("Password not accepted:")
		for _, violation := range verr.Violations {
			fmt.Println("  - " + violation)
		}
		return
	}
	fmt.Println("Error:", err)
}
