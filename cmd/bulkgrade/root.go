package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulkgrade",
		Short: "bulkgrade - grade a batch of student programming submissions",
		Long: `bulkgrade grades every student submission in an LMS download.

It matches submission folders to the class roster, compiles and runs the
instructor's tests against each submission, and writes the grades back in
the gradebook import format together with a post-grading report.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newSingleCommand())
	cmd.AddCommand(newParseLabelCommand())
	cmd.AddCommand(newMatchCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newCacheCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
