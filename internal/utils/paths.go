package utils

import (
	"path/filepath"
	"strings"
)

// ResolvePaths resolves classpath-style entries against baseDir. Blank
// entries are dropped and "." is kept as is, since it names the directory the
// command runs in. Returns nil when nothing is left.
func ResolvePaths(paths []string, baseDir string) []string {
	var resolved []string
	for _, p := range paths {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
			continue
		case p == ".", filepath.IsAbs(p), baseDir == "":
			resolved = append(resolved, filepath.Clean(p))
		default:
			resolved = append(resolved, filepath.Join(baseDir, p))
		}
	}
	return resolved
}
