package main

import (
	"fmt"
	"slices"

	"github.com/spboyer/bulkgrade/internal/config"
	"github.com/spboyer/bulkgrade/internal/matching"
	"github.com/spboyer/bulkgrade/internal/models"
	"github.com/spboyer/bulkgrade/internal/roster"
	"github.com/spf13/cobra"
)

type matchOptions struct {
	roster    string
	threshold int
	top       int
}

func newMatchCommand() *cobra.Command {
	var opts matchOptions

	cmd := &cobra.Command{
		Use:   "match <name>",
		Short: "Show which roster entries a submission name matches",
		Long: `Compare a submission display name against every roster entry and
list the closest candidates with their similarity ratio. The entry the
default matcher would pick is marked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return matchCommandE(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.roster, "roster", "g", "", "Roster exported from the gradebook (.csv or .xlsx)")
	cmd.Flags().IntVar(&opts.threshold, "threshold", config.DefaultThreshold, "Minimum fuzzy name similarity, 0-100")
	cmd.Flags().IntVarP(&opts.top, "top", "n", 5, "Number of candidates to show")
	_ = cmd.MarkFlagRequired("roster")

	return cmd
}

type candidate struct {
	student models.StudentRecord
	ratio   float64
}

func matchCommandE(cmd *cobra.Command, name string, opts matchOptions) error {
	students, err := roster.Load(opts.roster, config.DefaultAssignment)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	target := matching.Normalize(name)
	candidates := make([]candidate, 0, len(students))
	for _, s := range students {
		candidates = append(candidates, candidate{
			student: s,
			ratio:   matching.Ratio(target, matching.Normalize(s.FullName())),
		})
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		switch {
		case a.ratio > b.ratio:
			return -1
		case a.ratio < b.ratio:
			return 1
		default:
			return 0
		}
	})
	if opts.top > 0 && len(candidates) > opts.top {
		candidates = candidates[:opts.top]
	}

	picked, found := matching.Default().FindMatch(name, students, opts.threshold)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Normalized: %q\n\n", target) //nolint:errcheck
	for _, c := range candidates {
		marker := " "
		if found && c.student.ID == picked.ID {
			marker = "→"
		}
		fmt.Fprintf(out, "%s %s %-12s %5.1f\n", marker, padRight(truncateName(c.student.FullName(), nameColumnWidth), nameColumnWidth), c.student.ID.Username, c.ratio) //nolint:errcheck
	}
	if !found {
		fmt.Fprintf(out, "\nNo roster entry reaches the threshold of %d\n", opts.threshold) //nolint:errcheck
	}
	return nil
}
