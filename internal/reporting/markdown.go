package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/spboyer/bulkgrade/internal/metrics"
	"github.com/spboyer/bulkgrade/internal/models"
)

// FormatMarkdown renders a BatchReport as a Markdown document with GFM tables.
func FormatMarkdown(report *models.BatchReport) string {
	var b strings.Builder
	s := report.Summary

	title := report.Assignment
	if title == "" {
		title = "Grading"
	}
	fmt.Fprintf(&b, "# %s report\n\n", mdEscape(title))
	fmt.Fprintf(&b, "Run `%s` started %s, took %v.\n\n",
		report.RunID, report.Timestamp.Format(time.RFC3339), time.Duration(s.DurationMs)*time.Millisecond)
	if report.Stopped {
		b.WriteString("> **Stopped early.** Not every matched submission was graded.\n\n")
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	rows := [][2]string{
		{"Roster size", fmt.Sprint(s.RosterSize)},
		{"Submissions found", fmt.Sprint(s.SubmissionsFound)},
		{"Graded", fmt.Sprint(s.Graded)},
		{"Zero grades", fmt.Sprint(s.ZeroGrades)},
		{"Failed", fmt.Sprint(s.Failed)},
		{"Missing submissions", fmt.Sprint(s.Missing)},
		{"Unmatched submissions", fmt.Sprint(s.Unmatched)},
		{"Success rate", fmt.Sprintf("%.1f%%", s.SuccessRate)},
		{"Mean", fmt.Sprintf("%.1f%%", s.MeanPercentage)},
		{"Median", fmt.Sprintf("%.1f%%", s.MedianPercentage)},
		{"Min / Max", fmt.Sprintf("%.1f%% / %.1f%%", s.MinPercentage, s.MaxPercentage)},
		{"Std dev", fmt.Sprintf("%.2f", s.StdDevPercentage)},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", r[0], r[1])
	}

	if len(s.Distribution) > 0 {
		b.WriteString("\n## Distribution\n\n| Band | Students |\n|---|---|\n")
		for _, band := range metrics.DefaultBands {
			fmt.Fprintf(&b, "| %s | %d |\n", band.Label, s.Distribution[band.Label])
		}
	}

	if len(report.Results) > 0 {
		b.WriteString("\n## Results\n\n| Student | Username | Earned | Possible | Grade | Status |\n|---|---|---|---|---|---|\n")
		for _, res := range report.Results {
			grade := "-"
			if res.Success {
				grade = fmt.Sprintf("%.1f%%", res.FinalPercentage)
			}
			fmt.Fprintf(&b, "| %s | %s | %g | %g | %s | %s |\n",
				mdEscape(res.Student.FullName()), mdEscape(res.Student.ID.Username),
				res.Outcome.Earned, res.Outcome.Possible, grade, res.Status)
		}
	}

	writeMarkdownResults(&b, "Zero grades", report.Buckets.ZeroGrade)
	writeMarkdownResults(&b, "Failed", report.Buckets.Failed)

	if len(report.Buckets.MissingSubmission) > 0 {
		b.WriteString("\n## Missing submissions\n\n")
		for _, st := range report.Buckets.MissingSubmission {
			fmt.Fprintf(&b, "- %s (%s)\n", mdEscape(st.FullName()), mdEscape(st.ID.Username))
		}
	}

	if len(report.Buckets.UnmatchedSubmission) > 0 {
		b.WriteString("\n## Unmatched submissions\n\n")
		for _, sub := range report.Buckets.UnmatchedSubmission {
			fmt.Fprintf(&b, "- %s: `%s`\n", mdEscape(sub.Label.DisplayName), sub.Raw)
		}
	}

	return b.String()
}

func writeMarkdownResults(b *strings.Builder, title string, results []models.GradingResult) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, res := range results {
		reason := res.Error
		if reason == "" {
			reason = "test failures"
		}
		fmt.Fprintf(b, "- %s (%s): %s\n", mdEscape(res.Student.FullName()), mdEscape(res.Student.ID.Username), mdEscape(reason))
	}
}

var mdReplacer = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "'", "<", "&lt;", "\n", " ")

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
