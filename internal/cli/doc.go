// Package cli provides the interactive VaultScribe command-line client.
//
// It wires the auth service into a small REPL that walks users through the
// credential flows. Typical flow: sign up (or sign in), confirm the
// authenticator code, then manage the account.
//
// Key features:
//   - Sign up (provisions an authenticator before anything is stored)
//   - Login (password plus authenticator code, yields a session)
//   - Change password / rotate the authenticator secret
//   - Logout (revokes the session)
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
