// Package gradebook writes graded results back in the LMS import format.
package gradebook

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spboyer/bulkgrade/internal/models"
	"github.com/spboyer/bulkgrade/internal/roster"
	"github.com/xuri/excelize/v2"
)

// endOfLineMarker is the value the LMS expects in the End-of-Line Indicator column.
const endOfLineMarker = "#"

// Options control how grades are rendered.
type Options struct {
	// Assignment is the grade column header. Defaults to "Lab Grade".
	Assignment string
	// FailureIsNull leaves the cell empty for failed or missing submissions
	// instead of writing 0.000.
	FailureIsNull bool
}

func (o Options) assignment() string {
	if o.Assignment == "" {
		return roster.DefaultAssignment
	}
	return o.Assignment
}

// Header returns the output columns.
func (o Options) Header() []string {
	return []string{roster.ColumnOrgID, roster.ColumnUsername, o.assignment(), roster.ColumnEndOfLine}
}

// Rows builds one output row per roster entry, in roster order. Grades are
// written as a fraction of 1 with three decimals (87.5% becomes "0.875").
func Rows(students []models.StudentRecord, results []models.GradingResult, opts Options) [][]string {
	byStudent := make(map[models.StudentID]models.GradingResult, len(results))
	for _, r := range results {
		byStudent[r.Student.ID] = r
	}

	rows := make([][]string, 0, len(students))
	for _, s := range students {
		grade := ""
		if r, ok := byStudent[s.ID]; ok && r.Success {
			grade = FormatGrade(r.FinalPercentage)
		} else if !opts.FailureIsNull {
			grade = FormatGrade(0)
		}
		rows = append(rows, []string{s.ID.OrgID, s.ID.Username, grade, endOfLineMarker})
	}
	return rows
}

// FormatGrade renders a percentage as the LMS fraction.
func FormatGrade(percentage float64) string {
	return fmt.Sprintf("%.3f", percentage/100)
}

// WriteCSV writes the gradebook as CSV.
func WriteCSV(w io.Writer, students []models.StudentRecord, results []models.GradingResult, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(opts.Header()); err != nil {
		return err
	}
	if err := cw.WriteAll(Rows(students, results, opts)); err != nil {
		return fmt.Errorf("writing gradebook: %w", err)
	}
	return nil
}

// WriteXLSX writes the gradebook as an Excel workbook with a single sheet.
func WriteXLSX(path string, students []models.StudentRecord, results []models.GradingResult, opts Options) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := f.GetSheetName(0)
	write := func(rowNum int, values []string) error {
		cellName, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(sheet, cellName, &row)
	}

	if err := write(1, opts.Header()); err != nil {
		return fmt.Errorf("writing gradebook header: %w", err)
	}
	for i, row := range Rows(students, results, opts) {
		if err := write(i+2, row); err != nil {
			return fmt.Errorf("writing gradebook row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Save writes the gradebook to path, choosing the format by extension.
func Save(path string, students []models.StudentRecord, results []models.GradingResult, opts Options) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return WriteXLSX(path, students, results, opts)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(f, students, results, opts); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return f.Close()
}
