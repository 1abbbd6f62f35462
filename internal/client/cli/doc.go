// Package cli provides the interactive SecureBank command-line client.
//
// It wires configuration, the session token store, the request gateway and
// the auth/bank services behind a small REPL with two views: login and
// dashboard. The Navigator is the single consumer of session-invalidated
// events: it moves the user back to the login view with a reason marker
// ("expired" or "session") unless the user is already there.
//
// Commands:
//   - register, login, logout
//   - me, status
//   - accounts [customerID], balance <accountID>, transactions <accountID>
//   - transfer
//   - help, exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// Exiting removes the session token and closes session storage.
package cli
