package reporting

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spboyer/bulkgrade/internal/models"
)

// WriteJSON writes the full report, results included, as indented JSON.
func WriteJSON(report *models.BatchReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
