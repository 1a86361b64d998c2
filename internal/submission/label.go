// Package submission parses the folder names an LMS gives to downloaded
// submissions, e.g. "152711-351765 - John Doe - May 18, 2025 1224 PM".
package submission

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spboyer/bulkgrade/internal/models"
)

var labelPattern = regexp.MustCompile(
	`^\d+-\d+\s*-\s*(.+?)\s*-\s*(\pL+)\.?\s+(\d{1,2}),\s*(\d{4})\s+(\d{1,4})\s*([AaPp][Mm])$`,
)

var months = map[string]time.Month{
	"january":   time.January,
	"jan":       time.January,
	"february":  time.February,
	"feb":       time.February,
	"march":     time.March,
	"mar":       time.March,
	"april":     time.April,
	"apr":       time.April,
	"may":       time.May,
	"june":      time.June,
	"jun":       time.June,
	"july":      time.July,
	"jul":       time.July,
	"august":    time.August,
	"aug":       time.August,
	"september": time.September,
	"sep":       time.September,
	"sept":      time.September,
	"october":   time.October,
	"oct":       time.October,
	"november":  time.November,
	"nov":       time.November,
	"december":  time.December,
	"dec":       time.December,
}

// ParseLabel parses one submission folder name. Timestamps carry no zone in
// the source data and are returned in UTC.
//
// All returned errors match errors.Is(err, ErrInvalidLabel).
func ParseLabel(label string) (models.SubmissionLabel, error) {
	trimmed := strings.TrimSpace(label)
	m := labelPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return models.SubmissionLabel{}, &FormatError{Label: label}
	}

	name := strings.TrimSpace(m[1])
	if name == "" {
		return models.SubmissionLabel{}, &FormatError{Label: label, Reason: "empty name segment"}
	}

	month, ok := ParseMonth(m[2])
	if !ok {
		return models.SubmissionLabel{}, &UnknownMonthError{Month: m[2]}
	}

	// the pattern guarantees digits, so Atoi only fails on overflow
	day, err := strconv.Atoi(m[3])
	if err != nil {
		return models.SubmissionLabel{}, &FormatError{Label: label, Reason: "day is not a number"}
	}
	year, err := strconv.Atoi(m[4])
	if err != nil {
		return models.SubmissionLabel{}, &FormatError{Label: label, Reason: "year is not a number"}
	}

	hour, minute, err := ParseClock(m[5], m[6])
	if err != nil {
		return models.SubmissionLabel{}, err
	}

	ts := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	// time.Date normalizes out-of-range days (Feb 30 -> Mar 2), so compare back.
	if ts.Year() != year || ts.Month() != month || ts.Day() != day {
		return models.SubmissionLabel{}, &InvalidDateError{Year: year, Month: month.String(), Day: day}
	}

	return models.SubmissionLabel{DisplayName: name, Timestamp: ts}, nil
}

// ParseMonth resolves a full English month name, its 3-letter abbreviation,
// or "Sept". Matching is case-insensitive.
func ParseMonth(token string) (time.Month, bool) {
	m, ok := months[strings.ToLower(strings.TrimSuffix(token, "."))]
	return m, ok
}

// ParseClock interprets a 1-4 digit 12-hour clock reading and its AM/PM
// marker and returns the 24-hour hour and minute.
//
//	1-2 digits: hour only ("9" -> 9:00)
//	3 digits:   H MM      ("930" -> 9:30)
//	4 digits:   HH MM     ("1224" -> 12:24)
func ParseClock(digits, meridiem string) (hour, minute int, err error) {
	var hourPart, minutePart string
	switch len(digits) {
	case 1, 2:
		hourPart, minutePart = digits, "0"
	case 3:
		hourPart, minutePart = digits[:1], digits[1:]
	case 4:
		hourPart, minutePart = digits[:2], digits[2:]
	default:
		return 0, 0, &FormatError{Label: digits, Reason: "time must have 1 to 4 digits"}
	}

	hour, err = strconv.Atoi(hourPart)
	if err != nil {
		return 0, 0, &FormatError{Label: digits, Reason: "hour is not a number"}
	}
	minute, err = strconv.Atoi(minutePart)
	if err != nil {
		return 0, 0, &FormatError{Label: digits, Reason: "minute is not a number"}
	}

	if hour < 1 || hour > 12 {
		return 0, 0, &InvalidTimeError{Field: "hour", Value: hour, Min: 1, Max: 12}
	}
	if minute < 0 || minute > 59 {
		return 0, 0, &InvalidTimeError{Field: "minute", Value: minute, Min: 0, Max: 59}
	}

	switch strings.ToUpper(meridiem) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, 0, &FormatError{Label: meridiem, Reason: "expected AM or PM"}
	}

	return hour, minute, nil
}
