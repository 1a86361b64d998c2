package main

import (
	"fmt"

	"github.com/spboyer/bulkgrade/internal/config"
	"github.com/spboyer/bulkgrade/internal/validation"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [bulkgrade.yaml]",
		Short: "Check a configuration file",
		Long: `Validate a bulkgrade.yaml file against the configuration schema, then
check that its matcher, parser, strategy and executor settings can be built.

If no file is given, bulkgrade.yaml in the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: validateCommandE,
	}
}

func validateCommandE(cmd *cobra.Command, args []string) error {
	path := config.FileName
	if len(args) > 0 {
		path = args[0]
	}

	errs, err := validation.ValidateConfigFile(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(out, "✗ %s\n", e) //nolint:errcheck
		}
		return fmt.Errorf("%s: %d schema error(s)", path, len(errs))
	}

	spec, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(out, "✓ %s is valid\n", path) //nolint:errcheck
	return nil
}
