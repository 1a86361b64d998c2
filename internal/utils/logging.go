package utils

import (
	"context"
	"log/slog"

	"github.com/spboyer/bulkgrade/internal/models"
)

// ResultToSlog logs a graded submission at debug level. Nothing is formatted
// unless debug logging is enabled.
func ResultToSlog(result models.GradingResult) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{
		"username", result.Student.ID.Username,
		"status", result.Status,
		"earned", result.Outcome.Earned,
		"possible", result.Outcome.Possible,
		"percentage", result.FinalPercentage,
		"durationMs", result.DurationMs,
	}

	attrs = addIf(attrs, "error", nonEmpty(result.Error))
	attrs = addIf(attrs, "folder", nonEmpty(result.Folder))
	if result.Cached {
		attrs = append(attrs, "cached", true)
	}

	slog.Debug("Submission graded", attrs...)
}

func addIf[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name)
		attrs = append(attrs, *v)
	}

	return attrs
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
