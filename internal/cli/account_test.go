package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/vaultscribe/vaultscribe/internal/auth"
	"github.com/vaultscribe/vaultscribe/internal/common"
)

func TestWhoAmI_NotSignedIn(t *testing.T) {
	f := &fakeAuth{}
	a := &App{auth: f}

	if err := a.WhoAmI(context.Background()); err != nil {
		t.Fatalf("WhoAmI err: %v", err)
	}
}

func TestWhoAmI_ValidSession(t *testing.T) {
	f := &fakeAuth{validateEmail: "alice@x.com"}
	a := &App{auth: f, session: testSession(), email: "alice@x.com"}

	if err := a.WhoAmI(context.Background()); err != nil {
		t.Fatalf("WhoAmI err: %v", err)
	}
	if !a.isSignedIn() {
		t.Fatal("session dropped")
	}
}

func TestWhoAmI_ExpiredSessionForgetsToken(t *testing.T) {
	f := &fakeAuth{validateErr: common.ErrSessionExpired}
	a := &App{auth: f, session: testSession(), email: "alice@x.com"}

	err := a.WhoAmI(context.Background())
	if !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("want ErrSessionExpired, got %v", err)
	}
	if a.isSignedIn() || a.email != "" {
		t.Fatal("stale session kept")
	}
}

func TestChangePassword(t *testing.T) {
	f := &fakeAuth{}
	a := &App{auth: f, session: testSession(), email: "alice@x.com"}

	stubPasswords(t, "Or1g!nalPw", "N3w!Passwd")

	if err := a.ChangePassword(context.Background()); err != nil {
		t.Fatalf("ChangePassword err: %v", err)
	}
	if f.changeEmail != "alice@x.com" || f.changeOld != "Or1g!nalPw" || f.changeNew != "N3w!Passwd" {
		t.Fatalf("arguments mismatch: %q %q %q", f.changeEmail, f.changeOld, f.changeNew)
	}
}

func TestChangePassword_NotSignedIn(t *testing.T) {
	f := &fakeAuth{}
	a := &App{auth: f}

	if err := a.ChangePassword(context.Background()); err != nil {
		t.Fatalf("ChangePassword err: %v", err)
	}
	if f.changeOld != "" {
		t.Fatal("service called while signed out")
	}
}

func TestChangePassword_RejectionPropagates(t *testing.T) {
	f := &fakeAuth{changeErr: common.ErrInvalidCredentials}
	a := &App{auth: f, session: testSession(), email: "alice@x.com"}

	stubPasswords(t, "Wr0ng!Pwd", "N3w!Passwd")

	err := a.ChangePassword(context.Background())
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestReEnroll(t *testing.T) {
	f := &fakeAuth{reEnr: &auth.Enrollment{ID: "e3", Email: "alice@x.com"}}
	a := &App{auth: f, session: testSession(), email: "alice@x.com"}

	stubTextInputs(t, "123456")
	stubPasswords(t, "Str0ng!Pw")

	if err := a.ReEnroll(context.Background()); err != nil {
		t.Fatalf("ReEnroll err: %v", err)
	}
	if f.reEnrEmail != "alice@x.com" {
		t.Fatalf("email mismatch: %q", f.reEnrEmail)
	}
	if len(f.enrollCodes) != 1 || f.enrollCodes[0] != "123456" {
		t.Fatalf("codes mismatch: %v", f.enrollCodes)
	}
}

func TestReEnroll_NotSignedIn(t *testing.T) {
	f := &fakeAuth{}
	a := &App{auth: f}

	if err := a.ReEnroll(context.Background()); err != nil {
		t.Fatalf("ReEnroll err: %v", err)
	}
	if f.reEnrEmail != "" {
		t.Fatal("service called while signed out")
	}
}
