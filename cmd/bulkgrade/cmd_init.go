package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spboyer/bulkgrade/internal/config"
	"github.com/spboyer/bulkgrade/internal/wizard"
	"github.com/spf13/cobra"
)

func newInitCommand() *cobra.Command {
	var (
		useDefaults bool
		force       bool
		prefix      string
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a bulkgrade.yaml configuration",
		Long: `Create a bulkgrade.yaml configuration file.

By default a short interactive form asks for the assignment, executor, test
class and grading options. Use --defaults to write the default configuration
without prompting.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommandE(cmd, args, useDefaults, force, prefix)
		},
	}

	cmd.Flags().BoolVar(&useDefaults, "defaults", false, "Write the default configuration without prompting")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing bulkgrade.yaml")
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "Main test class to pre-fill, e.g. TestL3")

	return cmd
}

func initCommandE(cmd *cobra.Command, args []string, useDefaults, force bool, prefix string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	answers := wizard.DefaultAnswers()
	answers.Prefix = prefix
	if useDefaults {
		if prefix == "" {
			// No test class yet; the mock executor keeps the file valid.
			answers.Executor = config.ExecutorMock
		}
	} else {
		var err error
		answers, err = wizard.Run(cmd.InOrStdin(), cmd.OutOrStdout(), answers)
		if err != nil {
			return err
		}
	}

	spec, err := answers.Spec()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	data, err := spec.Marshal()
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", config.FileName, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path) //nolint:errcheck
	return nil
}
