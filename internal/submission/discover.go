package submission

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spboyer/bulkgrade/internal/models"
)

// Discover lists the submission folders directly inside root, sorted by name.
// Labels are not parsed here; Raw holds the folder name and FilePaths the
// regular files at the top of each folder.
func Discover(root string) ([]models.Submission, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading submissions directory: %w", err)
	}

	var subs []models.Submission
	for _, e := range entries {
		if !e.IsDir() || isHidden(e.Name()) {
			continue
		}

		folder := filepath.Join(root, e.Name())
		files, err := os.ReadDir(folder)
		if err != nil {
			return nil, fmt.Errorf("reading submission %q: %w", e.Name(), err)
		}

		sub := models.Submission{Raw: e.Name(), Folder: folder}
		for _, f := range files {
			if f.Type().IsRegular() && !isHidden(f.Name()) {
				sub.FilePaths = append(sub.FilePaths, filepath.Join(folder, f.Name()))
			}
		}
		subs = append(subs, sub)
	}

	sort.Slice(subs, func(i, j int) bool { return subs[i].Raw < subs[j].Raw })
	return subs, nil
}

func isHidden(name string) bool {
	return name == "__MACOSX" || (len(name) > 0 && name[0] == '.')
}
