package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spboyer/bulkgrade/internal/archive"
	"github.com/spboyer/bulkgrade/internal/cache"
	"github.com/spboyer/bulkgrade/internal/config"
	"github.com/spboyer/bulkgrade/internal/gradebook"
	"github.com/spboyer/bulkgrade/internal/models"
	"github.com/spboyer/bulkgrade/internal/orchestration"
	"github.com/spboyer/bulkgrade/internal/reporting"
	"github.com/spboyer/bulkgrade/internal/roster"
	"github.com/spboyer/bulkgrade/internal/spinner"
	"github.com/spboyer/bulkgrade/internal/submission"
	"github.com/spf13/cobra"
)

var (
	configPath      string
	submissionsPath string
	rosterPath      string
	testDir         string
	prefix          string
	outputPath      string
	assignmentName  string
	classpath       []string
	failureIsNull   bool
	gradeOnly       int
	preprocessCode  bool
	parallel        bool
	workers         int
	threshold       int
	executorType    string
	junitPath       string
	jsonPath        string
	htmlPath        string
	transcriptDir   string
	workDir         string
	studentFilters  []string
	enableCache     bool
	runCacheDir     string
	verbose         bool
	format          string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Grade every submission in an LMS download",
		Long: `Grade every submission in an LMS download.

Submissions are read from the zip file (or an already extracted directory)
downloaded from the LMS. Each folder is matched to a roster entry by name,
graded with the instructor's tests, and the grades are written to the
output file in the gradebook import format.

Settings are read from bulkgrade.yaml (found by walking up from the current
directory, or given with --config); flags override the file.`,
		Args: cobra.NoArgs,
		RunE: runCommandE,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to bulkgrade.yaml (default: search upwards from the current directory)")
	cmd.Flags().StringVarP(&submissionsPath, "submissions", "s", "", "Submissions zip file or extracted directory")
	cmd.Flags().StringVarP(&rosterPath, "roster", "g", "", "Roster exported from the gradebook (.csv or .xlsx)")
	cmd.Flags().StringVarP(&testDir, "test-dir", "t", "", "Directory containing the instructor test files")
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "Main test class, e.g. TestL3")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Gradebook output file (.csv or .xlsx)")
	cmd.Flags().StringVarP(&assignmentName, "assignment-name", "a", "", "Name of the grade column")
	cmd.Flags().StringArrayVar(&classpath, "classpath", nil, "Additional classpath entry (can be repeated)")
	cmd.Flags().BoolVarP(&failureIsNull, "failure-is-null", "F", false, "Leave the grade empty for failures instead of 0")
	cmd.Flags().IntVarP(&gradeOnly, "grade-only", "G", 0, "Grade at most N students (debugging)")
	cmd.Flags().BoolVarP(&preprocessCode, "preprocess-code", "P", false, "Remove package declarations before compiling")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Grade submissions concurrently")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of concurrent workers (default: 4, requires --parallel)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Minimum fuzzy name similarity, 0-100")
	cmd.Flags().StringVar(&executorType, "executor", "", "Executor: java, mock")
	cmd.Flags().StringVar(&junitPath, "junit", "", "Write a JUnit XML report to this file")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Write the full batch report as JSON to this file")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Write an HTML report to this file")
	cmd.Flags().StringVar(&transcriptDir, "transcript-dir", "", "Directory to save per-student transcript JSON files")
	cmd.Flags().StringVar(&workDir, "work-dir", "", "Keep per-student grading directories here (default: temporary)")
	cmd.Flags().StringArrayVar(&studentFilters, "student", nil, "Only grade students whose username or name matches this glob (can be repeated)")
	cmd.Flags().BoolVar(&enableCache, "cache", false, "Reuse results for unchanged submissions")
	cmd.Flags().StringVar(&runCacheDir, "cache-dir", "", "Cache directory (default: .bulkgrade-cache)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with detailed progress")
	cmd.Flags().StringVar(&format, "format", "default", "Console report format: default, markdown")

	return cmd
}

func runCommandE(cmd *cobra.Command, _ []string) error {
	if format != "default" && format != "markdown" {
		return fmt.Errorf("unknown output format: %s (supported: default, markdown)", format)
	}

	spec, specDir, err := loadSpec(configPath)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, spec); err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if submissionsPath == "" || rosterPath == "" {
		return fmt.Errorf("--submissions and --roster are required")
	}

	cfg := config.NewBatchConfig(spec,
		config.WithSpecDir(specDir),
		config.WithRosterPath(rosterPath),
		config.WithSubmissionsPath(submissionsPath),
		config.WithVerbose(verbose),
		config.WithLimit(gradeOnly),
	)

	students, err := roster.Load(cfg.RosterPath(), spec.Assignment)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	subsDir, cleanup, err := openSubmissions(cmd.ErrOrStderr(), cfg.SubmissionsPath())
	if err != nil {
		return err
	}
	defer cleanup()

	subs, err := submission.Discover(subsDir)
	if err != nil {
		return err
	}

	pipeline, err := orchestration.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	runnerOpts := []orchestration.RunnerOption{
		orchestration.WithAssignment(spec.Assignment),
		orchestration.WithWorkers(spec.Workers()),
		orchestration.WithLimit(cfg.Limit()),
		orchestration.WithStudentFilters(studentFilters...),
		orchestration.WithTranscriptDir(cfg.TranscriptDir()),
		orchestration.WithWorkDir(workDir),
	}
	if dir := cfg.CacheDir(); dir != "" {
		runnerOpts = append(runnerOpts, orchestration.WithCache(cache.New(dir)))
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "Cache enabled: %s\n", dir) //nolint:errcheck
		}
	}
	runner := orchestration.NewRunner(pipeline, runnerOpts...)

	out := &lockedWriter{w: cmd.OutOrStdout()}
	if verbose {
		runner.OnProgress(verboseProgressListener(out))
	} else {
		runner.OnProgress(simpleProgressListener(out))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	printRunHeader(out, cfg, len(students), len(subs))

	report, err := runner.Run(ctx, students, subs)
	if err != nil {
		return fmt.Errorf("grading failed: %w", err)
	}

	switch format {
	case "markdown":
		fmt.Fprint(out, reporting.FormatMarkdown(report)) //nolint:errcheck
	default:
		printResults(out, report)
		fmt.Fprintln(out)                                      //nolint:errcheck
		fmt.Fprint(out, reporting.FormatSummaryReport(report)) //nolint:errcheck
	}

	if err := saveOutputs(out, cfg, students, report); err != nil {
		return err
	}

	if report.Stopped {
		fmt.Fprintf(out, "\n[WARN] Grading was stopped after %d of the selected submissions\n", len(report.Results)) //nolint:errcheck
	}

	if report.HasFailures() {
		return &TestFailureError{
			Message: fmt.Sprintf("grading completed with %d failed submission(s)", len(report.Buckets.Failed)),
		}
	}

	return nil
}

// loadSpec reads the config file at path, or searches for one upwards from
// the current directory when path is empty. The returned directory is the
// base for relative paths in the config.
func loadSpec(path string) (*config.BatchSpec, string, error) {
	if path != "" {
		spec, err := config.LoadFile(path)
		if err != nil {
			return nil, "", err
		}
		dir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, "", fmt.Errorf("resolving config directory: %w", err)
		}
		return spec, dir, nil
	}

	spec, found, err := config.Load(".")
	if err != nil {
		return nil, "", err
	}
	if found != "" {
		return spec, filepath.Dir(found), nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	return spec, dir, nil
}

// applyRunFlags copies explicitly set flags over the loaded spec. Paths from
// flags are made absolute so they are not re-resolved against the config
// directory.
func applyRunFlags(cmd *cobra.Command, spec *config.BatchSpec) error {
	flags := cmd.Flags()

	absFlag := func(name string, dst *string, value string) error {
		if !flags.Changed(name) {
			return nil
		}
		abs, err := filepath.Abs(value)
		if err != nil {
			return fmt.Errorf("resolving --%s: %w", name, err)
		}
		*dst = abs
		return nil
	}

	for _, f := range []struct {
		name  string
		dst   *string
		value string
	}{
		{"test-dir", &spec.Execution.TestDir, testDir},
		{"output", &spec.Output.Path, outputPath},
		{"junit", &spec.Output.JUnit, junitPath},
		{"json", &spec.Output.JSON, jsonPath},
		{"html", &spec.Output.HTML, htmlPath},
		{"transcript-dir", &spec.Output.TranscriptDir, transcriptDir},
		{"cache-dir", &spec.Cache.Dir, runCacheDir},
	} {
		if err := absFlag(f.name, f.dst, f.value); err != nil {
			return err
		}
	}

	if flags.Changed("prefix") {
		spec.Execution.Prefix = strings.TrimSuffix(prefix, ".java")
	}
	if flags.Changed("assignment-name") {
		spec.Assignment = assignmentName
	}
	if len(classpath) > 0 {
		for _, entry := range classpath {
			abs, err := filepath.Abs(entry)
			if err != nil {
				return fmt.Errorf("resolving --classpath: %w", err)
			}
			spec.Execution.Classpath = append(spec.Execution.Classpath, abs)
		}
	}
	if flags.Changed("failure-is-null") {
		spec.Output.FailureIsNull = &failureIsNull
	}
	if flags.Changed("preprocess-code") {
		spec.Execution.PreprocessPackage = &preprocessCode
	}
	if parallel {
		spec.Concurrency.Parallel = &parallel
	}
	if workers > 0 {
		spec.Concurrency.MaxWorkers = workers
	}
	if flags.Changed("threshold") {
		spec.Matcher.Threshold = threshold
	}
	if executorType != "" {
		spec.Execution.Executor = executorType
	}
	if enableCache {
		spec.Cache.Enabled = &enableCache
	}
	return nil
}

// openSubmissions returns a directory of submission folders. A zip file is
// extracted to a temporary directory that cleanup removes.
func openSubmissions(status io.Writer, path string) (string, func(), error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("submissions: %w", err)
	}
	if info.IsDir() {
		return path, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "bulkgrade-submissions-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating extraction directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) } //nolint:errcheck

	stopSpinner := spinner.Start(status, "Extracting submissions...")
	_, err = archive.Extract(path, dir)
	stopSpinner()
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("extracting submissions: %w", err)
	}
	return dir, cleanup, nil
}

func printRunHeader(w io.Writer, cfg *config.BatchConfig, rosterSize, folders int) {
	spec := cfg.Spec()
	name := spec.Name
	if name == "" {
		name = spec.Assignment
	}
	fmt.Fprintf(w, "Grading: %s\n", name)                                            //nolint:errcheck
	fmt.Fprintf(w, "Roster: %s (%d students)\n", cfg.RosterPath(), rosterSize)       //nolint:errcheck
	fmt.Fprintf(w, "Submissions: %s (%d folders)\n", cfg.SubmissionsPath(), folders) //nolint:errcheck
	fmt.Fprintf(w, "Executor: %s\n", spec.Execution.Executor)                        //nolint:errcheck
	if spec.Execution.Executor == config.ExecutorJava {
		fmt.Fprintf(w, "Tests: %s (%s)\n", cfg.TestDir(), spec.Execution.Prefix) //nolint:errcheck
	}
	if n := spec.Workers(); n > 1 {
		fmt.Fprintf(w, "Parallel: %d workers\n", n) //nolint:errcheck
	}
	if config.Bool(spec.Execution.PreprocessPackage) {
		fmt.Fprintln(w, "Package declarations will be removed before compiling") //nolint:errcheck
	}
	if cfg.Verbose() && len(spec.Execution.Classpath) > 0 {
		fmt.Fprintln(w, "Classpath:") //nolint:errcheck
		for _, entry := range spec.Execution.Classpath {
			fmt.Fprintf(w, "  - %s\n", cfg.Resolve(entry)) //nolint:errcheck
		}
	}
	fmt.Fprintln(w) //nolint:errcheck
}

// saveOutputs writes the gradebook and any requested report files.
func saveOutputs(w io.Writer, cfg *config.BatchConfig, students []models.StudentRecord, report *models.BatchReport) error {
	spec := cfg.Spec()

	gradesPath := cfg.Resolve(spec.Output.Path)
	opts := gradebook.Options{
		Assignment:    spec.Assignment,
		FailureIsNull: config.Bool(spec.Output.FailureIsNull),
	}
	if err := gradebook.Save(gradesPath, students, report.Results, opts); err != nil {
		return fmt.Errorf("failed to save grades: %w", err)
	}
	fmt.Fprintf(w, "\nGrades saved to: %s\n", gradesPath) //nolint:errcheck

	writers := []struct {
		label string
		path  string
		write func(*models.BatchReport, string) error
	}{
		{"JUnit report", spec.Output.JUnit, reporting.WriteJUnitXML},
		{"JSON report", spec.Output.JSON, reporting.WriteJSON},
		{"HTML report", spec.Output.HTML, reporting.WriteHTML},
	}
	for _, rw := range writers {
		if rw.path == "" {
			continue
		}
		path := cfg.Resolve(rw.path)
		if err := rw.write(report, path); err != nil {
			return fmt.Errorf("failed to save %s: %w", strings.ToLower(rw.label), err)
		}
		fmt.Fprintf(w, "%s saved to: %s\n", rw.label, path) //nolint:errcheck
	}
	return nil
}
