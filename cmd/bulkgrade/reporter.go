package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/bulkgrade/internal/models"
	"github.com/spboyer/bulkgrade/internal/orchestration"
)

const nameColumnWidth = 28

// lockedWriter serializes writes from progress listeners, which the runner
// calls from every worker.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// formatDuration prints milliseconds below one second.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// truncateName shortens s to at most width display cells, ending in "…".
func truncateName(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

func statusIcon(status models.Status) string {
	switch status {
	case models.StatusPassed:
		return "✓"
	case models.StatusFailed:
		return "○"
	default:
		return "✗"
	}
}

func verboseProgressListener(w io.Writer) orchestration.ProgressListener {
	return func(event orchestration.ProgressEvent) {
		switch event.EventType {
		case orchestration.EventBatchStart:
			fmt.Fprintf(w, "Grading %d submission(s)...\n\n", event.Total) //nolint:errcheck
		case orchestration.EventSubmissionStart:
			fmt.Fprintf(w, "[%d/%d] Grading: %s\n", event.Num, event.Total, event.Student) //nolint:errcheck
		case orchestration.EventSubmissionCached:
			fmt.Fprintf(w, "[%d/%d] %s [cached] %s\n", event.Num, event.Total, event.Student, scoreDetail(event)) //nolint:errcheck
		case orchestration.EventSubmissionComplete:
			duration := time.Duration(event.DurationMs) * time.Millisecond
			fmt.Fprintf(w, "  %s %s %s (%s)\n", statusIcon(event.Status), event.Status, scoreDetail(event), formatDuration(duration)) //nolint:errcheck
		case orchestration.EventBatchStopped:
			fmt.Fprintf(w, "\nStopping: %v\n", event.Details["reason"]) //nolint:errcheck
		case orchestration.EventBatchComplete:
			duration := time.Duration(event.DurationMs) * time.Millisecond
			fmt.Fprintf(w, "\nGrading completed in %s\n\n", formatDuration(duration)) //nolint:errcheck
		}
	}
}

func simpleProgressListener(w io.Writer) orchestration.ProgressListener {
	return func(event orchestration.ProgressEvent) {
		switch event.EventType {
		case orchestration.EventSubmissionCached:
			fmt.Fprintf(w, "✓ [%d/%d] %s [cached]\n", event.Num, event.Total, event.Student) //nolint:errcheck
		case orchestration.EventSubmissionComplete:
			fmt.Fprintf(w, "%s [%d/%d] %s\n", statusIcon(event.Status), event.Num, event.Total, event.Student) //nolint:errcheck
		case orchestration.EventBatchComplete:
			fmt.Fprintln(w) //nolint:errcheck
		}
	}
}

func scoreDetail(event orchestration.ProgressEvent) string {
	if event.Status == models.StatusError {
		return ""
	}
	score, ok := event.Details["score"].(float64)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.1f%%", score)
}

// printResults renders one row per graded submission.
func printResults(w io.Writer, report *models.BatchReport) {
	fmt.Fprintln(w, "="+strings.Repeat("=", 60)) //nolint:errcheck
	fmt.Fprintln(w, " GRADING RESULTS")             //nolint:errcheck
	fmt.Fprintln(w, "="+strings.Repeat("=", 60)) //nolint:errcheck
	fmt.Fprintln(w)                               //nolint:errcheck

	if len(report.Results) == 0 {
		fmt.Fprintln(w, "No submissions were graded.") //nolint:errcheck
		return
	}

	fmt.Fprintf(w, "  %s %-12s %8s  %s\n", padRight("Student", nameColumnWidth), "Username", "Grade", "Status") //nolint:errcheck
	fmt.Fprintln(w, "  "+strings.Repeat("-", nameColumnWidth+32))                                              //nolint:errcheck
	for _, res := range report.Results {
		name := padRight(truncateName(res.Student.FullName(), nameColumnWidth), nameColumnWidth)
		grade := "-"
		if res.Success {
			grade = fmt.Sprintf("%.1f%%", res.FinalPercentage)
		}
		line := fmt.Sprintf("%s %s %-12s %8s  %s", statusIcon(res.Status), name, res.Student.ID.Username, grade, res.Status)
		if res.Cached {
			line += " [cached]"
		}
		fmt.Fprintln(w, line) //nolint:errcheck
	}
}
