package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/vaultscribe/vaultscribe/internal/common"
)

// WhoAmI resolves the in-memory token against the store, so it also notices
// a session that expired or was revoked while the CLI was running.
func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isSignedIn() {
		fmt.Println("Not signed in.")
		return nil
	}

	email, err := a.auth.ValidateSession(ctx, a.session.Token)
	if err != nil {
		a.session = nil
		a.email = ""
		fmt.Println("Session is no longer valid, please login again.")
		return err
	}

	fmt.Println("Signed in as " + email)
	return nil
}

// ChangePassword prompts for the current and replacement passwords. Both
// byte slices are wiped before returning.
func (a *App) ChangePassword(ctx context.Context) error {
	if !a.isSignedIn() {
		fmt.Println("Not signed in.")
		return nil
	}

	oldPw, err := getPassword(os.Stdout, "Enter current password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPw)

	newPw, err := getPassword(os.Stdout, "Enter new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPw)

	if err := a.auth.ChangePassword(ctx, a.email, string(oldPw), string(newPw)); err != nil {
		reportAuthError(err)
		return err
	}

	fmt.Println("Password changed.")
	return nil
}

// ReEnroll rotates the authenticator secret. The current secret keeps
// working until the first code from the new one is confirmed.
func (a *App) ReEnroll(ctx context.Context) error {
	if !a.isSignedIn() {
		fmt.Println("Not signed in.")
		return nil
	}

	pw, err := getPassword(os.Stdout, "Enter current password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	enr, err := a.auth.StartTOTPReEnrollment(ctx, a.email, string(pw))
	if err != nil {
		reportAuthError(err)
		return err
	}

	committed, err := a.confirmEnrollment(ctx, enr)
	if err != nil || !committed {
		return err
	}

	fmt.Println("Authenticator rotated.")
	return nil
}
