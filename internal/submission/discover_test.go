package submission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "1-2 - John Doe - May 18, 2025 1224 PM")
	b := filepath.Join(root, "1-3 - Ann Lee - May 18, 2025 900 AM")
	require.NoError(t, os.MkdirAll(a, 0755))
	require.NoError(t, os.MkdirAll(b, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "__MACOSX"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(a, "Lab1.java"), []byte("class Lab1 {}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(a, ".DS_Store"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), nil, 0644))

	subs, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	assert.Equal(t, "1-2 - John Doe - May 18, 2025 1224 PM", subs[0].Raw)
	assert.Equal(t, []string{filepath.Join(a, "Lab1.java")}, subs[0].FilePaths)
	assert.Equal(t, b, subs[1].Folder)
	assert.Empty(t, subs[1].FilePaths)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
