package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	failed := &TestFailureError{Message: "grading completed with 2 failed submission(s)"}
	assert.Equal(t, "grading completed with 2 failed submission(s)", failed.Error())

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitSuccess},
		{"failed submissions", failed, ExitTestFailed},
		{"wrapped failed submissions", fmt.Errorf("run: %w", failed), ExitTestFailed},
		{"config error", errors.New("--roster is required"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"run", "single", "parse-label", "match", "validate", "init", "cache"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("debug"))
}
