// Package orchestration drives one grading batch: it parses submission
// labels, reconciles them with the roster, grades every matched submission
// and partitions the results into report buckets.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spboyer/bulkgrade/internal/cache"
	"github.com/spboyer/bulkgrade/internal/execution"
	"github.com/spboyer/bulkgrade/internal/matching"
	"github.com/spboyer/bulkgrade/internal/metrics"
	"github.com/spboyer/bulkgrade/internal/models"
	"github.com/spboyer/bulkgrade/internal/parsers"
	"github.com/spboyer/bulkgrade/internal/strategy"
	"github.com/spboyer/bulkgrade/internal/submission"
	"github.com/spboyer/bulkgrade/internal/transcript"
	"github.com/spboyer/bulkgrade/internal/utils"
	"golang.org/x/sync/errgroup"
)

// ErrAlreadyRun is returned when Run is called on a runner that has already
// started a batch. Runners are single-use.
var ErrAlreadyRun = errors.New("batch runner has already been used")

// State is a batch runner's position in its lifecycle.
type State string

// State constants, in transition order.
const (
	StateInit     State = "init"
	StateLoaded   State = "loaded"
	StateMatched  State = "matched"
	StateGraded   State = "graded"
	StateReported State = "reported"
	StateDone     State = "done"
)

// Runner grades one batch of submissions against a roster.
type Runner struct {
	pipeline   Pipeline
	assignment string
	workers    int
	limit      int
	filters    []string

	// Result caching
	cache *cache.Cache

	transcriptDir string

	// workDir holds per-student grading directories. When empty a temporary
	// directory is used for each submission and removed afterwards.
	workDir string

	mu    sync.Mutex
	state State
	runID string

	// batch data, owned by Run
	startedAt  time.Time
	roster     []models.StudentRecord
	found      int
	loaded     []models.Submission
	skipped    []models.SkippedLabel
	selected   []models.Submission
	submitted  map[models.StudentID]bool
	unmatched  []models.Submission
	duplicates int
	results    []models.GradingResult
	stopped    bool
	report     *models.BatchReport

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventBatchStart         EventType = "batch_start"
	EventBatchComplete      EventType = "batch_complete"
	EventBatchStopped       EventType = "batch_stopped"
	EventSubmissionStart    EventType = "submission_start"
	EventSubmissionComplete EventType = "submission_complete"
	EventSubmissionCached   EventType = "submission_cached"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType  EventType
	Student    string
	Num        int
	Total      int
	Status     models.Status
	DurationMs int64
	Details    map[string]any
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds the number of submissions graded at once. Values below
// 1 mean sequential grading.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithLimit grades at most n matched submissions. Zero means no limit.
func WithLimit(n int) RunnerOption {
	return func(r *Runner) {
		r.limit = n
	}
}

// WithStudentFilters sets glob patterns; only matching submissions are graded.
func WithStudentFilters(patterns ...string) RunnerOption {
	return func(r *Runner) {
		r.filters = patterns
	}
}

// WithCache enables result caching
func WithCache(c *cache.Cache) RunnerOption {
	return func(r *Runner) {
		r.cache = c
	}
}

// WithTranscriptDir writes one transcript file per graded submission to dir.
func WithTranscriptDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.transcriptDir = dir
	}
}

// WithWorkDir keeps grading directories under dir instead of temporary ones.
func WithWorkDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.workDir = dir
	}
}

// WithAssignment sets the assignment name recorded in the report.
func WithAssignment(name string) RunnerOption {
	return func(r *Runner) {
		r.assignment = name
	}
}

// NewRunner creates a batch runner. Missing matcher, parser and strategy fall
// back to their package defaults, and a zero threshold to
// matching.DefaultThreshold.
func NewRunner(p Pipeline, opts ...RunnerOption) *Runner {
	if p.Threshold <= 0 {
		p.Threshold = matching.DefaultThreshold
	}
	if p.Matcher == nil {
		p.Matcher = matching.Default()
	}
	if p.Parser == nil {
		p.Parser = parsers.Default()
	}
	if p.Strategy == nil {
		p.Strategy = &strategy.Simple{}
	}

	r := &Runner{
		pipeline:  p,
		workers:   1,
		state:     StateInit,
		listeners: []ProgressListener{},
	}
	for _, o := range opts {
		o(r)
	}
	if r.workers < 1 {
		r.workers = 1
	}
	return r
}

// OnProgress registers a progress listener
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// State returns the runner's current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

// Report returns the batch report once the runner is done, or nil.
func (r *Runner) Report() *models.BatchReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateDone {
		return nil
	}
	return r.report
}

// Run grades subs against roster. Each submission needs Raw set to its folder
// name; Folder and FilePaths are passed to the executor.
//
// Cancelling ctx stops scheduling new submissions. Submissions already being
// graded finish and are included in the report, which is marked Stopped.
// Only configuration problems are returned as errors; per-submission failures
// are recorded in the report.
func (r *Runner) Run(ctx context.Context, roster []models.StudentRecord, subs []models.Submission) (*models.BatchReport, error) {
	r.mu.Lock()
	if r.state != StateInit {
		r.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	// leave Init before releasing the lock so a concurrent Run fails
	r.state = StateLoaded
	r.runID = uuid.NewString()
	r.mu.Unlock()

	if r.pipeline.Executor == nil {
		return nil, errors.New("no executor configured")
	}

	r.startedAt = time.Now().UTC()

	r.load(roster, subs)
	r.setState(StateLoaded)

	r.match()
	r.setState(StateMatched)

	r.notifyProgress(ProgressEvent{
		EventType: EventBatchStart,
		Total:     len(r.selected),
		Details: map[string]any{
			"run_id":      r.runID,
			"roster":      len(r.roster),
			"submissions": r.found,
			"workers":     r.workers,
		},
	})

	r.grade(ctx)
	r.setState(StateGraded)

	if r.stopped {
		reason := "stopped"
		if cause := context.Cause(ctx); cause != nil {
			reason = cause.Error()
		}
		r.notifyProgress(ProgressEvent{
			EventType: EventBatchStopped,
			Num:       len(r.results),
			Total:     len(r.selected),
			Details:   map[string]any{"reason": reason},
		})
	}

	report := r.buildReport()
	r.setState(StateReported)

	r.notifyProgress(ProgressEvent{
		EventType:  EventBatchComplete,
		Num:        len(r.results),
		Total:      len(r.selected),
		DurationMs: report.Summary.DurationMs,
		Details: map[string]any{
			"succeeded":    report.Summary.Succeeded,
			"failed":       report.Summary.Failed,
			"success_rate": report.Summary.SuccessRate,
		},
	})

	r.mu.Lock()
	r.report = report
	r.state = StateDone
	r.mu.Unlock()

	return report, nil
}

// load parses every submission label. Labels that do not parse are recorded
// and skipped.
func (r *Runner) load(roster []models.StudentRecord, subs []models.Submission) {
	r.roster = roster
	r.found = len(subs)

	for _, sub := range subs {
		label, err := submission.ParseLabel(sub.Raw)
		if err != nil {
			slog.Debug("Skipping submission", "label", sub.Raw, "error", err)
			r.skipped = append(r.skipped, models.SkippedLabel{Raw: sub.Raw, Reason: err.Error()})
			continue
		}
		sub.Label = label
		r.loaded = append(r.loaded, sub)
	}
}

// match keeps the latest submission per normalized display name, resolves
// each survivor against the roster, then applies filters and the limit.
func (r *Runner) match() {
	latest := dedupe(r.loaded, func(s models.Submission) string {
		return matching.Normalize(s.Label.DisplayName)
	})
	r.duplicates += len(r.loaded) - len(latest)

	var matched []models.Submission
	r.submitted = map[models.StudentID]bool{}

	for _, sub := range latest {
		student, ok := r.pipeline.Matcher.FindMatch(sub.Label.DisplayName, r.roster, r.pipeline.Threshold)
		if !ok {
			slog.Debug("No roster match", "name", sub.Label.DisplayName, "matcher", r.pipeline.Matcher.Name())
			r.unmatched = append(r.unmatched, sub)
			continue
		}

		rec := *student
		sub.Matched = &rec
		matched = append(matched, sub)
	}

	// two display names can resolve to the same student, e.g. "Jon Doe" and
	// "Jonathan Doe"; the latest upload still wins
	perStudent := dedupe(matched, func(s models.Submission) string {
		return s.Matched.ID.String()
	})
	r.duplicates += len(matched) - len(perStudent)

	for _, sub := range perStudent {
		r.submitted[sub.Matched.ID] = true
	}

	selected, err := FilterSubmissions(perStudent, r.filters)
	if err != nil {
		// patterns are validated by the caller; an invalid one filters nothing
		fmt.Fprintf(os.Stderr, "[WARN] %v\n", err)
		selected = perStudent
	}

	if r.limit > 0 && len(selected) > r.limit {
		selected = selected[:r.limit]
	}
	r.selected = selected
}

// dedupe keeps one submission per key: the one with the latest timestamp, or
// the first seen on a tie. Output order follows first appearance of each key.
func dedupe(subs []models.Submission, key func(models.Submission) string) []models.Submission {
	index := map[string]int{}
	var out []models.Submission

	for _, sub := range subs {
		k := key(sub)
		i, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, sub)
			continue
		}
		if sub.Label.Timestamp.After(out[i].Label.Timestamp) {
			out[i] = sub
		}
	}
	return out
}

// grade runs the selected submissions through the pipeline on a bounded
// worker pool. Each result is written to its own slot.
func (r *Runner) grade(ctx context.Context) {
	total := len(r.selected)
	slots := make([]*models.GradingResult, total)

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, sub := range r.selected {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// cancelled while waiting for a free worker
			if ctx.Err() != nil {
				return nil
			}
			result := r.gradeOne(ctx, sub, i+1, total)
			slots[i] = &result
			return nil
		})
	}

	// gradeOne never returns an error into the group
	_ = g.Wait()

	for _, res := range slots {
		if res != nil {
			r.results = append(r.results, *res)
		}
	}
	r.stopped = len(r.results) < total
}

func (r *Runner) gradeOne(ctx context.Context, sub models.Submission, num, total int) models.GradingResult {
	start := time.Now()
	name := sub.Matched.FullName()

	r.notifyProgress(ProgressEvent{
		EventType: EventSubmissionStart,
		Student:   name,
		Num:       num,
		Total:     total,
	})

	resp, cached, err := r.execute(ctx, sub)
	result := r.score(sub, resp, err)
	result.Cached = cached
	result.DurationMs = time.Since(start).Milliseconds()

	utils.ResultToSlog(result)
	if result.Error != "" {
		slog.Warn("Grading failed", "student", name, "error", result.Error)
	}

	r.writeTranscript(result, resp, start)

	event := ProgressEvent{
		EventType:  EventSubmissionComplete,
		Student:    name,
		Num:        num,
		Total:      total,
		Status:     result.Status,
		DurationMs: result.DurationMs,
		Details: map[string]any{
			"score":    result.FinalPercentage,
			"username": result.Student.ID.Username,
		},
	}
	if cached {
		event.EventType = EventSubmissionCached
	}
	r.notifyProgress(event)

	return result
}

// score turns an executor response into a GradingResult. Failed executions
// carry no grade.
func (r *Runner) score(sub models.Submission, resp *execution.Response, execErr error) models.GradingResult {
	result := models.GradingResult{
		Student: *sub.Matched,
		Label:   sub.Raw,
		Folder:  sub.Folder,
	}

	switch {
	case execErr != nil:
		result.Status = models.StatusError
		result.Error = execErr.Error()
		return result
	case !resp.Success:
		result.Status = models.StatusError
		result.Error = resp.ErrorMsg
		if result.Error == "" {
			result.Error = "execution failed"
		}
		return result
	}

	result.Outcomes, result.Outcome, result.FinalPercentage = r.pipeline.Score(resp.Transcript)
	result.Success = true
	result.Status = models.StatusFailed
	if result.FinalPercentage > 0 {
		result.Status = models.StatusPassed
	}
	return result
}

// execute runs one submission, going through the cache when the executor
// supports it. The executor is detached from ctx so that a stop request
// lets running submissions finish.
func (r *Runner) execute(ctx context.Context, sub models.Submission) (*execution.Response, bool, error) {
	var cacheKey string
	if fp, ok := r.pipeline.Executor.(execution.Fingerprinter); ok && r.cache != nil {
		key, err := cache.CacheKey(sub.FilePaths, fp.Fingerprint())
		if err != nil {
			slog.Debug("Cache key unavailable", "folder", sub.Folder, "error", err)
		} else {
			if resp, found := r.cache.Get(key); found {
				return resp, true, nil
			}
			cacheKey = key
		}
	}

	workDir, cleanup, err := r.prepareWorkDir(sub.Matched.ID.Handle())
	if err != nil {
		return nil, false, err
	}
	defer cleanup()

	resp, err := r.pipeline.Executor.Execute(context.WithoutCancel(ctx), &execution.Request{
		StudentID:     sub.Matched.ID.Handle(),
		SubmissionDir: sub.Folder,
		WorkDir:       workDir,
		Timeout:       r.pipeline.Timeout,
	})
	if err != nil {
		return nil, false, err
	}

	if cacheKey != "" {
		if err := r.cache.Put(cacheKey, resp); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to write cache for %q: %v\n", sub.Matched.ID.Handle(), err)
		}
	}

	return resp, false, nil
}

func (r *Runner) prepareWorkDir(username string) (string, func(), error) {
	if r.workDir == "" {
		dir, err := os.MkdirTemp("", "bulkgrade-*")
		if err != nil {
			return "", nil, fmt.Errorf("creating grading directory: %w", err)
		}
		return dir, func() { os.RemoveAll(dir) }, nil //nolint:errcheck
	}

	dir := filepath.Join(r.workDir, dirName(username))
	if err := os.RemoveAll(dir); err != nil {
		return "", nil, fmt.Errorf("clearing grading directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating grading directory: %w", err)
	}
	return dir, func() {}, nil
}

// dirName maps a username to a safe single path element.
func dirName(username string) string {
	s := strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			return c
		default:
			return '_'
		}
	}, username)
	if strings.Trim(s, ".") == "" {
		return "_"
	}
	return s
}

func (r *Runner) writeTranscript(result models.GradingResult, resp *execution.Response, start time.Time) {
	if r.transcriptDir == "" {
		return
	}

	rec := transcript.Build(r.runID, result, resp, start)
	if _, err := transcript.Write(r.transcriptDir, rec); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to write transcript for %q: %v\n", result.Student.ID.Handle(), err)
	}
}

// buildReport partitions the results into buckets and computes the summary.
func (r *Runner) buildReport() *models.BatchReport {
	report := &models.BatchReport{
		RunID:      r.runID,
		Assignment: r.assignment,
		Timestamp:  r.startedAt,
		Results:    r.results,
		Skipped:    r.skipped,
		Stopped:    r.stopped,
		Buckets: models.Buckets{
			ZeroGrade:           []models.GradingResult{},
			Failed:              []models.GradingResult{},
			MissingSubmission:   []models.StudentRecord{},
			UnmatchedSubmission: []models.Submission{},
		},
	}
	if report.Results == nil {
		report.Results = []models.GradingResult{}
	}

	grades := make([]float64, 0, len(r.results))
	nonZero := 0
	for _, res := range r.results {
		switch {
		case !res.Success:
			report.Buckets.Failed = append(report.Buckets.Failed, res)
		case res.FinalPercentage == 0:
			report.Buckets.ZeroGrade = append(report.Buckets.ZeroGrade, res)
		default:
			nonZero++
		}
		grades = append(grades, res.Grade())
	}

	for _, student := range r.roster {
		if !r.submitted[student.ID] {
			report.Buckets.MissingSubmission = append(report.Buckets.MissingSubmission, student)
		}
	}
	report.Buckets.UnmatchedSubmission = append(report.Buckets.UnmatchedSubmission, r.unmatched...)

	stats := metrics.Describe(grades)

	s := models.Summary{
		RosterSize:       len(r.roster),
		SubmissionsFound: r.found,
		Duplicates:       r.duplicates,
		Graded:           len(r.results),
		Succeeded:        len(r.results) - len(report.Buckets.Failed),
		Failed:           len(report.Buckets.Failed),
		ZeroGrades:       len(report.Buckets.ZeroGrade),
		Missing:          len(report.Buckets.MissingSubmission),
		Unmatched:        len(report.Buckets.UnmatchedSubmission),
		Skipped:          len(r.skipped),
		MeanPercentage:   stats.Mean,
		MinPercentage:    stats.Min,
		MaxPercentage:    stats.Max,
		MedianPercentage: stats.Median,
		StdDevPercentage: stats.StdDev,
		DurationMs:       time.Since(r.startedAt).Milliseconds(),
	}
	if s.RosterSize > 0 {
		s.SuccessRate = float64(nonZero) / float64(s.RosterSize) * 100
	}
	if stats.Count > 0 {
		s.Distribution = map[string]int{}
		for _, band := range metrics.Distribution(grades, nil) {
			s.Distribution[band.Label] = band.Count
		}
	}
	report.Summary = s

	return report
}
