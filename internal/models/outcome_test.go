package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestOutcome_Percentage(t *testing.T) {
	tests := []struct {
		name    string
		outcome TestOutcome
		want    float64
	}{
		{name: "nothing possible", outcome: TestOutcome{}, want: 0},
		{name: "full marks", outcome: TestOutcome{Earned: 10, Possible: 10}, want: 100},
		{name: "partial", outcome: TestOutcome{Earned: 3, Possible: 4}, want: 75},
		{name: "earned without possible", outcome: TestOutcome{Earned: 3}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.outcome.Percentage(), 1e-9)
		})
	}
}

func TestTestOutcome_Valid(t *testing.T) {
	assert.True(t, TestOutcome{}.Valid())
	assert.True(t, TestOutcome{Earned: 2, Possible: 2}.Valid())
	assert.False(t, TestOutcome{Earned: 3, Possible: 2}.Valid())
	assert.False(t, TestOutcome{Earned: -1, Possible: 2}.Valid())
	assert.False(t, TestOutcome{Earned: math.NaN(), Possible: 2}.Valid())
}

func TestGradingResult_Grade(t *testing.T) {
	ok := GradingResult{Success: true, FinalPercentage: 87.5}
	require.InDelta(t, 87.5, ok.Grade(), 1e-9)

	failed := GradingResult{Success: false, FinalPercentage: 87.5}
	require.True(t, math.IsNaN(failed.Grade()))
}

func TestStudentID_Normalize(t *testing.T) {
	id := StudentID{OrgID: "#123 456", Username: " #jdoe"}.Normalize()
	assert.Equal(t, "123456", id.OrgID)
	assert.Equal(t, "jdoe", id.Username)
}

func TestStudentID_Handle(t *testing.T) {
	assert.Equal(t, "jdoe", StudentID{OrgID: "1001", Username: "jdoe"}.Handle())
	assert.Equal(t, "1001", StudentID{OrgID: "1001"}.Handle())
}

func TestStudentRecord_FullName(t *testing.T) {
	assert.Equal(t, "John Doe", StudentRecord{FirstName: "John", LastName: "Doe"}.FullName())
	assert.Equal(t, "Cher", StudentRecord{FirstName: "Cher"}.FullName())
}
