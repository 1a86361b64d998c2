package main

import (
	"errors"
	"fmt"

	"github.com/spboyer/bulkgrade/internal/submission"
	"github.com/spf13/cobra"
)

func newParseLabelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-label <folder-name>...",
		Short: "Show how submission folder names are parsed",
		Long: `Parse one or more submission folder names, such as
"152711-351765 - John Doe - May 18, 2025 1224 PM", and print the student
name and timestamp extracted from each.`,
		Args: cobra.MinimumNArgs(1),
		RunE: parseLabelCommandE,
	}
}

func parseLabelCommandE(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	var errs []error
	for _, raw := range args {
		label, err := submission.ParseLabel(raw)
		if err != nil {
			fmt.Fprintf(out, "✗ %q: %v\n", raw, err) //nolint:errcheck
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "✓ %q\n    name: %s\n    time: %s\n", raw, label.DisplayName, label.Timestamp.Format("2006-01-02 15:04")) //nolint:errcheck
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d label(s) could not be parsed: %w", len(errs), len(args), errors.Join(errs...))
	}
	return nil
}
