package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/charspec/packages/scenario"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite represents a test suite (one per feature)
type JUnitTestSuite struct {
	XMLName    xml.Name         `xml:"testsuite"`
	Name       string           `xml:"name,attr"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	Properties *JUnitProperties `xml:"properties,omitempty"`
	TestCases  []JUnitTestCase  `xml:"testcase"`
}

// JUnitProperties carries run metadata on each suite
type JUnitProperties struct {
	Properties []JUnitProperty `xml:"property"`
}

type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// JUnitTestCase represents a single test case
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitFailure represents a test failure
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitError represents a test error
type JUnitError struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitSkipped represents a skipped test
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitFormatter formats test results as JUnit XML
type JUnitFormatter struct {
	writer     io.Writer
	testSuites []JUnitTestSuite
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{
		writer:     os.Stdout,
		testSuites: make([]JUnitTestSuite, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

func (f *JUnitFormatter) FormatResult(result *scenario.RunResult) {
	props := &JUnitProperties{Properties: []JUnitProperty{
		{Name: "runId", Value: result.RunID},
		{Name: "baseUrl", Value: result.BaseURL},
	}}

	byFeature := make(map[scenario.Feature]*JUnitTestSuite)
	var order []scenario.Feature
	for _, r := range result.Results {
		suite, ok := byFeature[r.Feature]
		if !ok {
			suite = &JUnitTestSuite{
				Name:       "charspec." + string(r.Feature),
				Timestamp:  time.Now().Format(time.RFC3339),
				Properties: props,
			}
			byFeature[r.Feature] = suite
			order = append(order, r.Feature)
		}

		tc := JUnitTestCase{
			Name:      r.Name,
			ClassName: suite.Name,
			Time:      r.Duration.Seconds(),
		}
		suite.Tests++
		suite.Time += r.Duration.Seconds()

		if r.Skipped {
			suite.Skipped++
			tc.Skipped = &JUnitSkipped{
				Message: r.SkipReason,
			}
		} else if !r.Passed {
			var failureMsg strings.Builder
			for _, a := range r.Assertions {
				if !a.Passed {
					fmt.Fprintf(&failureMsg, "%s %s: expected %v, got %v. %s\n",
						a.Subject, a.Operator, a.Expected, a.Actual, a.Message)
				}
			}
			switch r.Kind {
			case scenario.KindAssertion, scenario.KindNone:
				suite.Failures++
				tc.Failure = &JUnitFailure{
					Message: "Assertion failed",
					Type:    "AssertionError",
					Content: failureMsg.String(),
				}
			default:
				suite.Errors++
				msg := ""
				if r.Error != nil {
					msg = r.Error.Error()
				}
				tc.Error = &JUnitError{
					Message: msg,
					Type:    string(r.Kind),
					Content: failureMsg.String(),
				}
			}
		}

		if len(r.Attachments) > 0 {
			var out strings.Builder
			for _, a := range r.Attachments {
				fmt.Fprintf(&out, "--- %s (%s)\n%s\n", a.Label, a.MediaType, a.Payload)
			}
			tc.SystemOut = out.String()
		}

		suite.TestCases = append(suite.TestCases, tc)
	}

	for _, feature := range order {
		f.testSuites = append(f.testSuites, *byFeature[feature])
	}
}

func (f *JUnitFormatter) FormatError(err error) {
	// Errors are included in individual test cases
}

func (f *JUnitFormatter) FormatHeader(version string) {
	// No header needed for JUnit XML
}

// Flush writes the accumulated JUnit XML output
func (f *JUnitFormatter) Flush(totalDuration time.Duration) error {
	var totalTests, totalFailures, totalErrors, totalSkipped int
	for _, suite := range f.testSuites {
		totalTests += suite.Tests
		totalFailures += suite.Failures
		totalErrors += suite.Errors
		totalSkipped += suite.Skipped
	}

	suites := JUnitTestSuites{
		Name:       "charspec",
		Tests:      totalTests,
		Failures:   totalFailures,
		Errors:     totalErrors,
		Skipped:    totalSkipped,
		Time:       totalDuration.Seconds(),
		Timestamp:  time.Now().Format(time.RFC3339),
		TestSuites: f.testSuites,
	}

	fmt.Fprintf(f.writer, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	return encoder.Encode(suites)
}
