// Package archive unpacks LMS submission downloads.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrUnsafePath is returned when an archive entry would land outside the
// destination directory.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// maxEntrySize bounds a single decompressed entry.
const maxEntrySize = 64 << 20

// Extract unpacks every entry of the zip at src into dest, keeping the
// archive's directory layout.
func Extract(src, dest string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", src, err)
	}
	defer r.Close() //nolint:errcheck

	var written []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return written, err
		}
		if err := writeEntry(f, target); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

// ExtractFlat unpacks only entries whose extension is in exts (for example
// ".java") directly into dest, dropping their directory components. A later
// entry with the same base name overwrites an earlier one.
func ExtractFlat(src, dest string, exts ...string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", src, err)
	}
	defer r.Close() //nolint:errcheck

	seen := map[string]bool{}
	var written []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !hasExt(f.Name, exts) {
			continue
		}
		base := filepath.Base(filepath.FromSlash(strings.ReplaceAll(f.Name, `\`, "/")))
		if isJunk(base) {
			continue
		}
		target, err := safeJoin(dest, base)
		if err != nil {
			return written, err
		}
		if err := writeEntry(f, target); err != nil {
			return written, err
		}
		if !seen[target] {
			seen[target] = true
			written = append(written, target)
		}
	}
	return written, nil
}

func writeEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("reading entry %s: %w", f.Name, err)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}

	n, err := io.Copy(out, io.LimitReader(rc, maxEntrySize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if n > maxEntrySize {
		return fmt.Errorf("entry %s exceeds %d bytes", f.Name, maxEntrySize)
	}
	return nil
}

// safeJoin joins name onto dest, rejecting absolute paths and traversal.
func safeJoin(dest, name string) (string, error) {
	base := filepath.Clean(dest)
	rel := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(rel) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrUnsafePath, name)
	}

	full := filepath.Join(base, rel)
	if !strings.HasPrefix(full+string(os.PathSeparator), base+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return full, nil
}

func hasExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// isJunk reports macOS resource-fork files that zip tools leave behind.
func isJunk(base string) bool {
	return strings.HasPrefix(base, "._")
}
