package spinner

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStart_NotATerminal(t *testing.T) {
	var buf bytes.Buffer

	stop := Start(&buf, "Extracting submissions...")
	assert.Equal(t, "Extracting submissions... ", buf.String())

	stop()
	stop()
	assert.Equal(t, "Extracting submissions... done\n", buf.String(), "stop is idempotent")
}
