package main

// Exit codes for the snaphtml CLI.
const (
	ExitSuccess = 0 // Every render succeeded
	ExitFailure = 1 // Any error, including a partially failed batch
)

// exitCodeFor returns the exit code for an error.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitFailure
}
