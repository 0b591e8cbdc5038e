// Package exitcode defines the process exit codes navkit commands produce.
//
// Every job is a terminal batch run: it either completes (0) or stops on a
// precondition or fatal error (1). Per-item failures are reported in the run
// summary and do not change the exit code.
package exitcode

// Exit codes for navkit
const (
	Success = 0
	Failure = 1
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case Failure:
		return "Failure"
	default:
		return "Unknown"
	}
}

// FromError maps a command result to an exit code.
func FromError(err error) int {
	if err != nil {
		return Failure
	}
	return Success
}
