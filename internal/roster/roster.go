// Package roster loads the class list exported from the LMS gradebook.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spboyer/bulkgrade/internal/models"
	"github.com/xuri/excelize/v2"
)

// Canonical column names in the LMS export.
const (
	ColumnOrgID       = "OrgDefinedId"
	ColumnUsername    = "Username"
	ColumnFirstName   = "First Name"
	ColumnLastName    = "Last Name"
	ColumnEndOfLine   = "End-of-Line Indicator"
	DefaultAssignment = "Lab Grade"
)

// Load reads a roster from a .csv or .xlsx file. assignment names the grade
// column whose current value is kept as the record's OriginalGrade.
func Load(path, assignment string) ([]models.StudentRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, assignment)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("roster: open %s: %w", path, err)
		}
		defer f.Close() //nolint:errcheck

		records, err := ReadCSV(f, assignment)
		if err != nil {
			return nil, fmt.Errorf("roster: %s: %w", path, err)
		}
		return records, nil
	}
}

// ReadCSV parses a roster from CSV. The first row is the header.
func ReadCSV(r io.Reader, assignment string) ([]models.StudentRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return fromRows(rows, assignment)
}

// LoadXLSX reads a roster from the first sheet of an Excel workbook.
func LoadXLSX(path, assignment string) ([]models.StudentRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("roster: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("roster: read %s: %w", path, err)
	}

	records, err := fromRows(rows, assignment)
	if err != nil {
		return nil, fmt.Errorf("roster: %s: %w", path, err)
	}
	return records, nil
}

func fromRows(rows [][]string, assignment string) ([]models.StudentRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty (no header row)")
	}

	cols, err := resolveColumns(rows[0], assignment)
	if err != nil {
		return nil, err
	}

	orgIDs := map[string]int{}
	usernames := map[string]int{}
	records := make([]models.StudentRecord, 0, len(rows)-1)

	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}

		id := models.StudentID{
			OrgID:    cell(row, cols.orgID),
			Username: cell(row, cols.username),
		}.Normalize()

		if id.OrgID == "" && id.Username == "" {
			return nil, fmt.Errorf("row %d has no %s or %s", line, ColumnOrgID, ColumnUsername)
		}
		if prev, ok := orgIDs[id.OrgID]; ok && id.OrgID != "" {
			return nil, fmt.Errorf("row %d: duplicate %s %q (first seen on row %d)", line, ColumnOrgID, id.OrgID, prev)
		}
		if prev, ok := usernames[id.Username]; ok && id.Username != "" {
			return nil, fmt.Errorf("row %d: duplicate %s %q (first seen on row %d)", line, ColumnUsername, id.Username, prev)
		}
		orgIDs[id.OrgID] = line
		usernames[id.Username] = line

		records = append(records, models.StudentRecord{
			ID:            id,
			FirstName:     cell(row, cols.firstName),
			LastName:      cell(row, cols.lastName),
			OriginalGrade: cell(row, cols.grade),
		})
	}

	return records, nil
}

type columns struct {
	orgID, username, firstName, lastName, grade int
}

// resolveColumns finds the required columns, accepting case, spacing and
// underscore variants such as "FirstName" or "first_name".
func resolveColumns(header []string, assignment string) (columns, error) {
	index := map[string]int{}
	for i, h := range header {
		key := headerKey(h)
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}

	find := func(name string) int {
		if i, ok := index[headerKey(name)]; ok {
			return i
		}
		return -1
	}

	cols := columns{
		orgID:     find(ColumnOrgID),
		username:  find(ColumnUsername),
		firstName: find(ColumnFirstName),
		lastName:  find(ColumnLastName),
		grade:     -1,
	}
	if assignment != "" {
		cols.grade = find(assignment)
	}

	var missing []string
	for name, idx := range map[string]int{
		ColumnOrgID:     cols.orgID,
		ColumnUsername:  cols.username,
		ColumnFirstName: cols.firstName,
		ColumnLastName:  cols.lastName,
	} {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sortColumns(missing)
		return cols, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

var columnOrder = []string{ColumnOrgID, ColumnUsername, ColumnFirstName, ColumnLastName}

func sortColumns(names []string) {
	slices.SortFunc(names, func(a, b string) int {
		return slices.Index(columnOrder, a) - slices.Index(columnOrder, b)
	})
}

func headerKey(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
