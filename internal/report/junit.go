package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Amr-9/rrt/pkg/models"
)

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Timestamp  string             `xml:"timestamp,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

// WriteJUnit renders the summary as a single JUnit test suite. Cancelled
// cases are reported as skipped.
func WriteJUnit(w io.Writer, summary *models.RunSummary) error {
	suite := jUnitXMLTestSuite{
		Name:      "rrt: " + summary.APIAddress,
		Tests:     summary.Tally.Total,
		Failures:  summary.Tally.Failed,
		Skipped:   summary.Tally.Cancelled,
		Time:      junitSeconds(summary.Duration),
		Timestamp: summary.Started.Format(time.RFC3339),
		Properties: []jUnitXMLProperty{
			{Name: "run.state", Value: string(summary.State)},
		},
	}
	if by := summary.AbortedBy(); by != "" {
		suite.Properties = append(suite.Properties, jUnitXMLProperty{Name: "run.aborted_by", Value: by})
	}

	for _, r := range summary.Results {
		tc := jUnitXMLTestCase{
			Classname: r.Method,
			Name:      caseName(r),
			Time:      junitSeconds(r.Elapsed),
		}
		switch r.Outcome {
		case models.Failed:
			tc.Failure = &jUnitXMLFailure{
				Message:  r.Reason,
				Type:     string(r.FailureKind),
				Contents: fmt.Sprintf("%s %s\nexpected status %d, got %s", r.Method, r.URL, r.ExpectedStatus, statusText(r)),
			}
		case models.Cancelled:
			tc.SkipMessage = &jUnitXMLSkipMessage{Message: r.Reason}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	doc := jUnitXMLDocument{Suites: []jUnitXMLTestSuite{suite}}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode junit report: %w", err)
	}
	return nil
}

// SaveJUnit writes the JUnit report to path.
func SaveJUnit(summary *models.RunSummary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create junit file '%s': %w", path, err)
	}
	if err := WriteJUnit(f, summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func junitSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// caseName is the description, or the request line when there is none.
func caseName(r models.CaseResult) string {
	if r.Description != "" {
		return r.Description
	}
	if r.URL != "" {
		return r.Method + " " + r.URL
	}
	return fmt.Sprintf("test %d", r.Index+1)
}

func statusText(r models.CaseResult) string {
	if !r.Responded() {
		return "no response"
	}
	return fmt.Sprintf("%d", r.Status)
}
