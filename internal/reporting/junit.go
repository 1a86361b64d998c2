package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/spboyer/bulkgrade/internal/models"
)

// JUnit XML schema types. The same types are used to read test reports
// produced by graded submissions.

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one grading batch.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one student.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a test assertion failure.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents an unexpected error during test execution.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks a test as skipped.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts a BatchReport to JUnit XML format. Each graded
// student is a test case: zero grades are failures, failed executions are
// errors and roster entries without a submission are skipped.
func ConvertToJUnit(report *models.BatchReport) *JUnitTestSuites {
	s := report.Summary
	durationSec := float64(s.DurationMs) / 1000.0

	suite := JUnitTestSuite{
		Name:      report.Assignment,
		Tests:     s.Graded + s.Missing,
		Failures:  s.ZeroGrades,
		Errors:    s.Failed,
		Skipped:   s.Missing,
		Time:      durationSec,
		Timestamp: report.Timestamp.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "run_id", Value: report.RunID},
			{Name: "roster_size", Value: fmt.Sprintf("%d", s.RosterSize)},
			{Name: "success_rate", Value: fmt.Sprintf("%.1f", s.SuccessRate)},
			{Name: "mean_percentage", Value: fmt.Sprintf("%.2f", s.MeanPercentage)},
		},
	}

	for _, res := range report.Results {
		suite.TestCases = append(suite.TestCases, convertResult(report.Assignment, res))
	}

	for _, student := range report.Buckets.MissingSubmission {
		suite.TestCases = append(suite.TestCases, JUnitTestCase{
			Name:      caseName(student),
			Classname: report.Assignment,
			Skipped:   &JUnitSkipped{Message: "no submission"},
		})
	}

	return &JUnitTestSuites{
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Errors:     suite.Errors,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func convertResult(assignment string, res models.GradingResult) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      caseName(res.Student),
		Classname: assignment,
		Time:      float64(res.DurationMs) / 1000.0,
	}

	switch {
	case !res.Success:
		msg := res.Error
		if msg == "" {
			msg = "execution error"
		}
		tc.Error = &JUnitError{
			Message: msg,
			Type:    "ExecutionError",
			Body:    res.Label,
		}
	case res.FinalPercentage == 0:
		tc.Failure = &JUnitFailure{
			Message: fmt.Sprintf("%s: grade=0 (%g/%g)", res.Student.ID.Username, res.Outcome.Earned, res.Outcome.Possible),
			Type:    "ZeroGrade",
			Body:    res.Label,
		}
	}

	return tc
}

func caseName(s models.StudentRecord) string {
	return fmt.Sprintf("%s (%s)", s.FullName(), s.ID.Username)
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(report *models.BatchReport, path string) error {
	suites := ConvertToJUnit(report)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
