package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spboyer/bulkgrade/internal/config"
	"github.com/spboyer/bulkgrade/internal/execution"
	"github.com/spboyer/bulkgrade/internal/orchestration"
	"github.com/spf13/cobra"
)

type singleOptions struct {
	config     string
	codeDir    string
	testDir    string
	prefix     string
	classpath  []string
	preprocess bool
	executor   string
	verbose    bool
}

func newSingleCommand() *cobra.Command {
	var opts singleOptions

	cmd := &cobra.Command{
		Use:   "single",
		Short: "Grade one submission directory",
		Long: `Compile and run the instructor's tests against a single code directory
and print the grade. Useful for checking a test suite or a disputed grade.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return singleCommandE(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.config, "config", "", "Path to bulkgrade.yaml (default: search upwards from the current directory)")
	cmd.Flags().StringVarP(&opts.codeDir, "code-dir", "c", ".", "Directory containing the student's code")
	cmd.Flags().StringVarP(&opts.testDir, "test-dir", "t", "", "Directory containing the instructor test files")
	cmd.Flags().StringVarP(&opts.prefix, "prefix", "p", "", "Main test class, e.g. TestL3")
	cmd.Flags().StringArrayVar(&opts.classpath, "classpath", nil, "Additional classpath entry (can be repeated)")
	cmd.Flags().BoolVarP(&opts.preprocess, "preprocess-code", "P", false, "Remove package declarations before compiling")
	cmd.Flags().StringVar(&opts.executor, "executor", "", "Executor: java, mock")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print the test transcript")

	return cmd
}

func singleCommandE(cmd *cobra.Command, opts singleOptions) error {
	spec, specDir, err := loadSpec(opts.config)
	if err != nil {
		return err
	}

	if opts.testDir != "" {
		abs, err := filepath.Abs(opts.testDir)
		if err != nil {
			return fmt.Errorf("resolving --test-dir: %w", err)
		}
		spec.Execution.TestDir = abs
	}
	if opts.prefix != "" {
		spec.Execution.Prefix = strings.TrimSuffix(opts.prefix, ".java")
	}
	for _, entry := range opts.classpath {
		abs, err := filepath.Abs(entry)
		if err != nil {
			return fmt.Errorf("resolving --classpath: %w", err)
		}
		spec.Execution.Classpath = append(spec.Execution.Classpath, abs)
	}
	if opts.preprocess {
		spec.Execution.PreprocessPackage = &opts.preprocess
	}
	if opts.executor != "" {
		spec.Execution.Executor = opts.executor
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	pipeline, err := orchestration.NewPipeline(config.NewBatchConfig(spec, config.WithSpecDir(specDir)))
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	codeDir, err := filepath.Abs(opts.codeDir)
	if err != nil {
		return fmt.Errorf("resolving --code-dir: %w", err)
	}
	work, err := os.MkdirTemp("", "bulkgrade-single-*")
	if err != nil {
		return fmt.Errorf("creating grading directory: %w", err)
	}
	defer os.RemoveAll(work) //nolint:errcheck

	resp, err := pipeline.Executor.Execute(cmd.Context(), &execution.Request{
		StudentID:     filepath.Base(codeDir),
		SubmissionDir: codeDir,
		WorkDir:       work,
		Timeout:       pipeline.Timeout,
	})
	if err != nil {
		return fmt.Errorf("grading failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.verbose {
		fmt.Fprintln(out, strings.TrimRight(resp.Transcript, "\n")) //nolint:errcheck
		fmt.Fprintln(out)                                           //nolint:errcheck
	}
	if !resp.Success {
		msg := resp.ErrorMsg
		if msg == "" {
			msg = "execution failed"
		}
		if resp.Stderr != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), strings.TrimRight(resp.Stderr, "\n")) //nolint:errcheck
		}
		return &TestFailureError{Message: fmt.Sprintf("%s: %s", filepath.Base(codeDir), msg)}
	}

	outcomes, total, pct := pipeline.Score(resp.Transcript)
	for _, o := range outcomes {
		name := o.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(out, "  %s %g/%g\n", padRight(name, nameColumnWidth), o.Earned, o.Possible) //nolint:errcheck
	}
	fmt.Fprintf(out, "Grade: %g/%g (%.1f%%)\n", total.Earned, total.Possible, pct) //nolint:errcheck
	return nil
}
