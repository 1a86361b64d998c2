package execution

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spboyer/bulkgrade/internal/archive"
)

// ErrNoSourceFiles is returned when a submission has neither Java sources
// nor a zip archive.
var ErrNoSourceFiles = errors.New("no ZIP or Java files found in submission")

const javaExt = ".java"

// PrepareWorkspace populates workDir from submissionDir. Top-level .java files
// are copied as-is; when there are none, every .zip in the folder is unpacked
// with only its .java entries kept, flattened into workDir.
func PrepareWorkspace(submissionDir, workDir string) ([]string, error) {
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("creating grading directory: %w", err)
	}

	sources, err := listByExt(submissionDir, javaExt)
	if err != nil {
		return nil, err
	}
	if len(sources) > 0 {
		if err := copyInto(sources, workDir); err != nil {
			return nil, err
		}
		return listByExt(workDir, javaExt)
	}

	zips, err := listByExt(submissionDir, ".zip")
	if err != nil {
		return nil, err
	}
	if len(zips) == 0 {
		return nil, ErrNoSourceFiles
	}

	for _, z := range zips {
		if _, err := archive.ExtractFlat(z, workDir, javaExt); err != nil {
			return nil, fmt.Errorf("extracting %s: %w", filepath.Base(z), err)
		}
	}

	files, err := listByExt(workDir, javaExt)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoSourceFiles
	}
	return files, nil
}

// FindTestFiles returns the files in testDir named <prefix>*.java, sorted.
func FindTestFiles(testDir, prefix string) ([]string, error) {
	info, err := os.Stat(testDir)
	if err != nil {
		return nil, fmt.Errorf("test directory %s: %w", testDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test directory %s is not a directory", testDir)
	}

	matches, err := filepath.Glob(filepath.Join(testDir, globEscape(prefix)+"*"+javaExt))
	if err != nil {
		return nil, fmt.Errorf("finding test files: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// CopyTestFiles copies the instructor's test files into workDir, overwriting
// any student file with the same name.
func CopyTestFiles(testFiles []string, workDir string) error {
	return copyInto(testFiles, workDir)
}

func copyInto(files []string, workDir string) error {
	base := filepath.Clean(workDir)
	if base == "" || base == "." {
		return fmt.Errorf("workspace is not set")
	}
	baseWithSep := base + string(os.PathSeparator)

	for _, src := range files {
		dst := filepath.Clean(filepath.Join(base, filepath.Base(src)))
		if !strings.HasPrefix(dst+string(os.PathSeparator), baseWithSep) {
			return fmt.Errorf("file %q escapes workspace", src)
		}
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("copying %s: %w", filepath.Base(src), err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck
		return err
	}
	return out.Close()
}

// listByExt returns the regular files directly inside dir with the given
// extension (case-insensitive), sorted by name.
func listByExt(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)
	return r.Replace(s)
}
