package main

import (
	"fmt"
	"path/filepath"

	"github.com/spboyer/bulkgrade/internal/cache"
	"github.com/spboyer/bulkgrade/internal/config"
	"github.com/spf13/cobra"
)

var cacheDir string

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the grading result cache",
		Long: `Manage the grading result cache.

The cache stores executor transcripts so that re-running a batch skips
submissions whose files, tests and executor settings have not changed.`,
	}

	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the grading result cache",
		Long: `Clear all cached grading results.

The next run will compile and test every submission again.`,
		Args: cobra.NoArgs,
		RunE: cacheClearE,
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", config.DefaultCacheDir, "Cache directory to clear")

	return cmd
}

func cacheClearE(cmd *cobra.Command, args []string) error {
	absDir, err := filepath.Abs(cacheDir)
	if err != nil {
		return fmt.Errorf("resolving cache directory: %w", err)
	}

	c := cache.New(absDir)
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", absDir) //nolint:errcheck
	return nil
}
