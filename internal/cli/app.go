package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/vaultscribe/vaultscribe/internal/auth"
	"github.com/vaultscribe/vaultscribe/internal/models"
)

// authAPI is the slice of the auth service the CLI drives. The concrete
// *auth.Service satisfies it; tests substitute a fake.
type authAPI interface {
	SignUp(ctx context.Context, email, plaintext string) (*auth.Enrollment, error)
	SubmitEnrollmentCode(ctx context.Context, enrollmentID, code string) error
	AbandonEnrollment(ctx context.Context, enrollmentID string)
	SignIn(ctx context.Context, email, plaintext string) (*auth.Challenge, error)
	SubmitAuthCode(ctx context.Context, challengeID, code string) (*models.Session, error)
	ValidateSession(ctx context.Context, token string) (string, error)
	SignOut(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, email, oldPlaintext, newPlaintext string) error
	StartTOTPReEnrollment(ctx context.Context, email, plaintext string) (*auth.Enrollment, error)
}

// App holds the interactive session state. The session token lives only in
// process memory; exiting the CLI forgets it without revoking the row.
type App struct {
	auth   authAPI
	reader *bufio.Reader

	session *models.Session
	email   string
}

func NewApp(auth authAPI) *App {
	return &App{auth: auth, reader: bufio.NewReader(os.Stdin)}
}

func (a *App) isSignedIn() bool {
	return a.session != nil
}

func (a *App) getStatus() string {
	if a.email != "" {
		return fmt.Sprintf("(%s) ", a.email)
	}
	return ""
}

// Root runs the interactive loop on stdin until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to VaultScribe (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
