// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, invalid input, rejected update).
	UserError = 1

	// AuthError indicates a missing or refused security token.
	AuthError = 2

	// BackendError indicates a server or network error.
	BackendError = 3
)
