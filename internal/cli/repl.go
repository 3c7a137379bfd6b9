package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isSignedIn() bool
	SignUp(ctx context.Context) error
	SignIn(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	ReEnroll(ctx context.Context) error
	SignOut(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the VaultScribe CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not signed in:
//	  - help           — show available commands
//	  - signup         — create an account
//	  - login          — authenticate
//	  - exit | quit    — leave the program
//
//	Signed in:
//	  - help           — show available commands
//	  - whoami         — show the signed-in account
//	  - passwd         — change the password
//	  - reenroll       — rotate the authenticator secret
//	  - logout         — revoke the session
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// report their own errors. This keeps the REPL loop resilient and focused on
// I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("vs %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isSignedIn() {
				printlnFn("Available commands: whoami, passwd, reenroll, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, exit")
			}

		case "signup":
			_ = a.SignUp(ctx)

		case "login":
			_ = a.SignIn(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "passwd":
			_ = a.ChangePassword(ctx)

		case "reenroll":
			_ = a.ReEnroll(ctx)

		case "logout":
			_ = a.SignOut(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
