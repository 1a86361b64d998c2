package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess    = 0 // Every graded submission succeeded
	ExitTestFailed = 1 // One or more submissions failed to grade
	ExitError      = 2 // Configuration or runtime error
)

// TestFailureError indicates that the batch ran to completion, but one or
// more submissions could not be graded.
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return e.Message
}

// exitCode maps the error returned by the root command to a process status.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var failed *TestFailureError
	if errors.As(err, &failed) {
		return ExitTestFailed
	}
	return ExitError
}

func main() {
	err := execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}
