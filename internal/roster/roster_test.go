package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spboyer/bulkgrade/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `OrgDefinedId,Username,Last Name,First Name,Lab Grade,End-of-Line Indicator
#152711,#jdoe,Doe,J.,,#
#152712,#mrossi,Rossi,Mário,7.5,#
`

func TestReadCSV(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(sampleCSV), DefaultAssignment)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.StudentRecord{
		ID:        models.StudentID{OrgID: "152711", Username: "jdoe"},
		FirstName: "J.",
		LastName:  "Doe",
	}, records[0])
	assert.Equal(t, "Mário Rossi", records[1].FullName())
	assert.Equal(t, "7.5", records[1].OriginalGrade)
}

func TestReadCSV_HeaderVariants(t *testing.T) {
	in := "\ufefforg_defined_id,USERNAME,FirstName,last name\n1,a,Ann,Lee\n"
	records, err := ReadCSV(strings.NewReader(in), "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ann Lee", records[0].FullName())
	assert.Equal(t, "1", records[0].ID.OrgID)
}

func TestReadCSV_SkipsBlankRows(t *testing.T) {
	in := "OrgDefinedId,Username,First Name,Last Name\n1,a,Ann,Lee\n,,,\n2,b,Bo,Kim\n"
	records, err := ReadCSV(strings.NewReader(in), "")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"empty", "", "empty"},
		{"missing columns", "OrgDefinedId,Username\n1,a\n", "missing required columns: First Name, Last Name"},
		{"duplicate username", "OrgDefinedId,Username,First Name,Last Name\n1,a,A,A\n2,#a,B,B\n", "duplicate Username"},
		{"duplicate org id", "OrgDefinedId,Username,First Name,Last Name\n#1,a,A,A\n1,b,B,B\n", "duplicate OrgDefinedId"},
		{"no identifiers", "OrgDefinedId,Username,First Name,Last Name\n,,A,A\n", "row 2 has no"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_CSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	records, err := Load(path, DefaultAssignment)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"), DefaultAssignment)
	require.Error(t, err)
}

func TestLoad_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"OrgDefinedId", "Username", "First Name", "Last Name"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"#100", "#zoe", "Zoë", "Ng"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{101, "li", "Li", "Wei"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, err := Load(path, DefaultAssignment)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.StudentID{OrgID: "100", Username: "zoe"}, records[0].ID)
	assert.Equal(t, "Zoë Ng", records[0].FullName())
	assert.Equal(t, "101", records[1].ID.OrgID)
}
