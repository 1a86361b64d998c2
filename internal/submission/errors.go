package submission

import (
	"errors"
	"fmt"
)

// ErrInvalidLabel is matched by every error ParseLabel returns.
var ErrInvalidLabel = errors.New("invalid submission label")

// FormatError reports a label that does not have the expected
// "<id>-<id> - <name> - <month> <day>, <year> <time> <AM|PM>" shape.
type FormatError struct {
	Label  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("label %q: %s", e.Label, e.Reason)
	}
	return fmt.Sprintf("label %q does not match the expected submission format", e.Label)
}

func (e *FormatError) Is(target error) bool { return target == ErrInvalidLabel }

// UnknownMonthError reports a month token outside the fixed English vocabulary.
type UnknownMonthError struct {
	Month string
}

func (e *UnknownMonthError) Error() string {
	return fmt.Sprintf("unknown month %q", e.Month)
}

func (e *UnknownMonthError) Is(target error) bool { return target == ErrInvalidLabel }

// InvalidDateError reports a day/month/year combination that is not a real
// calendar date, e.g. February 30.
type InvalidDateError struct {
	Year  int
	Month string
	Day   int
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date: %s %d, %d", e.Month, e.Day, e.Year)
}

func (e *InvalidDateError) Is(target error) bool { return target == ErrInvalidLabel }

// InvalidTimeError reports an hour or minute outside the 12-hour clock range.
type InvalidTimeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *InvalidTimeError) Error() string {
	return fmt.Sprintf("invalid %s %d: must be between %d and %d", e.Field, e.Value, e.Min, e.Max)
}

func (e *InvalidTimeError) Is(target error) bool { return target == ErrInvalidLabel }
