package submission

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabel_Valid(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		wantName string
		want     time.Time
	}{
		{
			name:     "standard label",
			label:    "152711-351765 - John Doe - May 18, 2025 1224 PM",
			wantName: "John Doe",
			want:     time.Date(2025, time.May, 18, 12, 24, 0, 0, time.UTC),
		},
		{
			name:     "hyphenated name",
			label:    "1-2 - Mary-Jane Watson - Jan 3, 2024 930 AM",
			wantName: "Mary-Jane Watson",
			want:     time.Date(2024, time.January, 3, 9, 30, 0, 0, time.UTC),
		},
		{
			name:     "apostrophe and accents",
			label:    "99-100 - Siobhán O'Brien - September 30, 2023 1159 PM",
			wantName: "Siobhán O'Brien",
			want:     time.Date(2023, time.September, 30, 23, 59, 0, 0, time.UTC),
		},
		{
			name:     "sept abbreviation",
			label:    "12-34 - Ana Lima - Sept 1, 2025 7 PM",
			wantName: "Ana Lima",
			want:     time.Date(2025, time.September, 1, 19, 0, 0, 0, time.UTC),
		},
		{
			name:     "midnight",
			label:    "12-34 - Ana Lima - Dec 31, 2025 1205 AM",
			wantName: "Ana Lima",
			want:     time.Date(2025, time.December, 31, 0, 5, 0, 0, time.UTC),
		},
		{
			name:     "lowercase meridiem",
			label:    "12-34 - Ana Lima - feb 29, 2024 11 am",
			wantName: "Ana Lima",
			want:     time.Date(2024, time.February, 29, 11, 0, 0, 0, time.UTC),
		},
		{
			name:     "surrounding whitespace",
			label:    "  12-34 -   Ana Lima   - Mar 2, 2025 1 PM  ",
			wantName: "Ana Lima",
			want:     time.Date(2025, time.March, 2, 13, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLabel(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.DisplayName)
			assert.True(t, tt.want.Equal(got.Timestamp), "got %s, want %s", got.Timestamp, tt.want)
		})
	}
}

func TestParseLabel_Deterministic(t *testing.T) {
	label := "152711-351765 - John Doe - May 18, 2025 1224 PM"
	a, err := ParseLabel(label)
	require.NoError(t, err)
	b, err := ParseLabel(label)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestParseLabel_Errors(t *testing.T) {
	t.Run("format", func(t *testing.T) {
		_, err := ParseLabel("not a submission folder")
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		require.ErrorIs(t, err, ErrInvalidLabel)
	})

	t.Run("missing meridiem", func(t *testing.T) {
		_, err := ParseLabel("1-2 - John Doe - May 18, 2025 1224")
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
	})

	t.Run("unknown month", func(t *testing.T) {
		_, err := ParseLabel("1-2 - John Doe - Mayo 18, 2025 1224 PM")
		var me *UnknownMonthError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, "Mayo", me.Month)
		require.ErrorIs(t, err, ErrInvalidLabel)
	})

	t.Run("non-ASCII month", func(t *testing.T) {
		_, err := ParseLabel("1-2 - José García - Mäy 18, 2025 1224 PM")
		var me *UnknownMonthError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, "Mäy", me.Month)
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := ParseLabel("1-2 - John Doe - Feb 30, 2025 1224 PM")
		var de *InvalidDateError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, 30, de.Day)
	})

	t.Run("not a leap year", func(t *testing.T) {
		_, err := ParseLabel("1-2 - John Doe - Feb 29, 2025 1224 PM")
		var de *InvalidDateError
		require.ErrorAs(t, err, &de)
	})

	t.Run("hour out of range", func(t *testing.T) {
		_, err := ParseLabel("1-2 - John Doe - May 18, 2025 1300 PM")
		var te *InvalidTimeError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "hour", te.Field)
		assert.Equal(t, 13, te.Value)
		assert.Contains(t, te.Error(), "between 1 and 12")
	})

	t.Run("minute out of range", func(t *testing.T) {
		_, err := ParseLabel("1-2 - John Doe - May 18, 2025 1260 PM")
		var te *InvalidTimeError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "minute", te.Field)
		assert.Equal(t, 60, te.Value)
	})
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		digits, meridiem string
		hour, minute     int
	}{
		{"1224", "PM", 12, 24},
		{"1", "AM", 1, 0},
		{"12", "AM", 0, 0},
		{"12", "PM", 12, 0},
		{"905", "pm", 21, 5},
		{"0130", "AM", 1, 30},
	}
	for _, tt := range tests {
		t.Run(tt.digits+tt.meridiem, func(t *testing.T) {
			h, m, err := ParseClock(tt.digits, tt.meridiem)
			require.NoError(t, err)
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.minute, m)
		})
	}

	_, _, err := ParseClock("0", "AM")
	var te *InvalidTimeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 0, te.Value)

	_, _, err = ParseClock("1300", "PM")
	require.ErrorAs(t, err, &te)
}

func TestParseMonth(t *testing.T) {
	for token, want := range map[string]time.Month{
		"January": time.January,
		"jan":     time.January,
		"SEPT":    time.September,
		"Sep":     time.September,
		"Dec.":    time.December,
	} {
		got, ok := ParseMonth(token)
		require.True(t, ok, token)
		assert.Equal(t, want, got, token)
	}

	_, ok := ParseMonth("Smarch")
	assert.False(t, ok)
}
