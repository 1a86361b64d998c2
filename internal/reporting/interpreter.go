package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/spboyer/bulkgrade/internal/models"
)

// InterpretPercentage returns a plain-language label for a class average (0-100).
func InterpretPercentage(pct float64) string {
	switch {
	case pct > 90:
		return "Excellent (>90%)"
	case pct >= 70:
		return "Good (70-90%)"
	case pct >= 50:
		return "Needs Work (50-70%)"
	default:
		return "Poor (<50%)"
	}
}

// InterpretSuccessRate explains a success rate (0-100), where success means a
// non-zero grade for a roster entry.
func InterpretSuccessRate(rate float64) string {
	switch {
	case rate >= 100:
		return fmt.Sprintf("Every student received a grade (%.1f%%)", rate)
	case rate >= 80:
		return fmt.Sprintf("Most students received a grade (%.1f%%)", rate)
	case rate >= 50:
		return fmt.Sprintf("About half the students received a grade (%.1f%%)", rate)
	default:
		return fmt.Sprintf("Few students received a grade (%.1f%%)", rate)
	}
}

const (
	rule    = "================================================================================"
	subRule = "------------------------------------------------------------"
)

// FormatSummaryReport produces the post-grading report: the four problem
// buckets followed by summary statistics.
func FormatSummaryReport(report *models.BatchReport) string {
	var b strings.Builder
	s := report.Summary

	b.WriteString("\n" + rule + "\n")
	b.WriteString("POST-GRADING REPORT\n")
	b.WriteString(rule + "\n")

	writeResultBucket(&b, "STUDENTS WHO RECEIVED A GRADE OF 0", report.Buckets.ZeroGrade,
		"No students received a grade of 0", "Test failures")
	writeResultBucket(&b, "STUDENTS WITH FAILED/NULL GRADES", report.Buckets.Failed,
		"No students have failed/null grades", "Grading failed")

	b.WriteString(fmt.Sprintf("\nSTUDENTS IN ROSTER BUT WITHOUT SUBMISSIONS (%d students):\n", len(report.Buckets.MissingSubmission)))
	b.WriteString(subRule + "\n")
	if len(report.Buckets.MissingSubmission) == 0 {
		b.WriteString("  ✓ All students in the roster have submissions\n")
	}
	for _, st := range report.Buckets.MissingSubmission {
		b.WriteString(fmt.Sprintf("  • %s (%s)\n", st.FullName(), st.ID.Username))
	}

	b.WriteString(fmt.Sprintf("\nSUBMISSIONS WITHOUT A ROSTER MATCH (%d submissions):\n", len(report.Buckets.UnmatchedSubmission)))
	b.WriteString(subRule + "\n")
	if len(report.Buckets.UnmatchedSubmission) == 0 {
		b.WriteString("  ✓ All submissions correspond to students in the roster\n")
	}
	for _, sub := range report.Buckets.UnmatchedSubmission {
		b.WriteString(fmt.Sprintf("  • %s\n", sub.Label.DisplayName))
		b.WriteString(fmt.Sprintf("    Submission folder: %s\n", sub.Raw))
	}

	if len(report.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("\nUNREADABLE SUBMISSION FOLDERS (%d):\n", len(report.Skipped)))
		b.WriteString(subRule + "\n")
		for _, sk := range report.Skipped {
			b.WriteString(fmt.Sprintf("  • %s\n    Reason: %s\n", sk.Raw, sk.Reason))
		}
	}

	b.WriteString("\nSUMMARY STATISTICS:\n")
	b.WriteString(subRule + "\n")
	b.WriteString(fmt.Sprintf("  Total students in roster: %d\n", s.RosterSize))
	b.WriteString(fmt.Sprintf("  Total submissions found: %d\n", s.SubmissionsFound))
	if s.Duplicates > 0 {
		b.WriteString(fmt.Sprintf("  Older duplicate submissions ignored: %d\n", s.Duplicates))
	}
	b.WriteString(fmt.Sprintf("  Total students graded: %d\n", s.Graded))
	b.WriteString(fmt.Sprintf("  Students with grade 0: %d\n", s.ZeroGrades))
	b.WriteString(fmt.Sprintf("  Students with failed grades: %d\n", s.Failed))
	b.WriteString(fmt.Sprintf("  Students missing submissions: %d\n", s.Missing))
	b.WriteString(fmt.Sprintf("  Extra submissions (not in roster): %d\n", s.Unmatched))

	if s.RosterSize > 0 {
		nonZero := s.Succeeded - s.ZeroGrades
		b.WriteString(fmt.Sprintf("  Success rate: %.1f%% (%d/%d)\n", s.SuccessRate, nonZero, s.RosterSize))
		b.WriteString(fmt.Sprintf("  %s\n", InterpretSuccessRate(s.SuccessRate)))
	}

	if s.Succeeded > 0 {
		b.WriteString(fmt.Sprintf("  Average: %.1f%% (%s)\n", s.MeanPercentage, InterpretPercentage(s.MeanPercentage)))
		b.WriteString(fmt.Sprintf("  Median: %.1f%%  Min: %.1f%%  Max: %.1f%%  Std dev: %.1f\n",
			s.MedianPercentage, s.MinPercentage, s.MaxPercentage, s.StdDevPercentage))
	}
	b.WriteString(fmt.Sprintf("  Duration: %v\n", time.Duration(s.DurationMs)*time.Millisecond))

	if report.Stopped {
		b.WriteString("  Grading was stopped before every submission ran\n")
	}
	b.WriteString(rule + "\n")

	return b.String()
}

func writeResultBucket(b *strings.Builder, title string, results []models.GradingResult, empty, defaultReason string) {
	b.WriteString(fmt.Sprintf("\n%s (%d students):\n", title, len(results)))
	b.WriteString(subRule + "\n")
	if len(results) == 0 {
		b.WriteString("  ✓ " + empty + "\n")
		return
	}
	for _, res := range results {
		reason := res.Error
		if reason == "" {
			reason = defaultReason
		}
		b.WriteString(fmt.Sprintf("  • %s (%s)\n", res.Student.FullName(), res.Student.ID.Username))
		b.WriteString(fmt.Sprintf("    Reason: %s\n\n", reason))
	}
}
