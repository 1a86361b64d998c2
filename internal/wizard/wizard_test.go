package wizard

import (
	"testing"

	"github.com/spboyer/bulkgrade/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePrefix(t *testing.T) {
	tests := []struct {
		prefix  string
		wantErr bool
	}{
		{"TestL3", false},
		{"_Test$1", false},
		{"", true},
		{"3Test", true},
		{"Test L3", true},
		{"TestL3.java", true},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			err := ValidatePrefix(tt.prefix)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRange(t *testing.T) {
	v := validateRange(0, 100)
	assert.NoError(t, v("80"))
	assert.NoError(t, v(" 0 "))
	assert.Error(t, v("101"))
	assert.Error(t, v("eighty"))
}

func TestAnswers_Spec(t *testing.T) {
	a := DefaultAnswers()
	a.Name = " Lab 3 "
	a.Prefix = "TestL3"
	a.Threshold = "70"
	a.Workers = "4"
	a.Strategy = "drop_lowest"
	a.FailureIsNull = true

	spec, err := a.Spec()
	require.NoError(t, err)

	assert.Equal(t, "Lab 3", spec.Name)
	assert.Equal(t, config.DefaultAssignment, spec.Assignment)
	assert.Equal(t, "TestL3", spec.Execution.Prefix)
	assert.Equal(t, "tests", spec.Execution.TestDir)
	assert.Equal(t, 70, spec.Matcher.Threshold)
	assert.Equal(t, "drop_lowest", spec.Strategy.Type)
	assert.Equal(t, 4, spec.Workers())
	assert.True(t, config.Bool(spec.Output.FailureIsNull))
}

func TestAnswers_SpecSequential(t *testing.T) {
	a := DefaultAnswers()
	a.Executor = config.ExecutorMock

	spec, err := a.Spec()
	require.NoError(t, err)
	assert.Equal(t, 1, spec.Workers())
	assert.False(t, config.Bool(spec.Output.FailureIsNull))
}

func TestAnswers_SpecInvalid(t *testing.T) {
	a := DefaultAnswers()
	_, err := a.Spec()
	require.Error(t, err, "java executor without a prefix")
	assert.Contains(t, err.Error(), "execution.prefix")

	a.Prefix = "TestL3"
	a.Threshold = "high"
	_, err = a.Spec()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold")
}
