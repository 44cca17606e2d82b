package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/charspec/packages/assertions"
	"github.com/abdul-hamid-achik/charspec/packages/scenario"
	"gopkg.in/yaml.v3"
)

// TAPFormatter formats scenario results as TAP version 13. Failed scenarios
// carry a YAML diagnostic block.
type TAPFormatter struct {
	writer  io.Writer
	results []*scenario.ScenarioResult
}

// tapDiagnostic is the YAML block written under a failed test line
type tapDiagnostic struct {
	Feature     string       `yaml:"feature"`
	Severity    string       `yaml:"severity"`
	Kind        string       `yaml:"kind,omitempty"`
	Message     string       `yaml:"message,omitempty"`
	DurationMs  int64        `yaml:"duration_ms"`
	Failures    []tapFailure `yaml:"failures,omitempty"`
	Attachments []string     `yaml:"attachments,omitempty"`
}

type tapFailure struct {
	Subject  string `yaml:"subject"`
	Operator string `yaml:"operator"`
	Message  string `yaml:"message,omitempty"`
	Expected string `yaml:"expected,omitempty"`
	Actual   string `yaml:"actual,omitempty"`
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *scenario.RunResult) {
	f.results = append(f.results, result.Results...)
}

func (f *TAPFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

func newTAPFailure(a *assertions.Result) tapFailure {
	tf := tapFailure{Subject: a.Subject, Operator: a.Operator, Message: a.Message}
	if a.Expected != nil {
		tf.Expected = formatValue(a.Expected, 100)
	}
	if a.Actual != nil {
		tf.Actual = formatValue(a.Actual, 100)
	}
	return tf
}

func diagnosticFor(r *scenario.ScenarioResult) tapDiagnostic {
	d := tapDiagnostic{
		Feature:    string(r.Feature),
		Severity:   "fail",
		DurationMs: r.Duration.Milliseconds(),
	}
	for _, a := range r.Assertions {
		if !a.Passed {
			d.Failures = append(d.Failures, newTAPFailure(a))
		}
	}
	if r.Error != nil && (r.Kind != scenario.KindAssertion || len(d.Failures) == 0) {
		d.Severity = "error"
		d.Kind = string(r.Kind)
		d.Message = r.Error.Error()
	}
	for _, a := range r.Attachments {
		d.Attachments = append(d.Attachments, a.Label)
	}
	return d
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	fmt.Fprintf(f.writer, "TAP version 13\n")
	fmt.Fprintf(f.writer, "1..%d\n", len(f.results))

	for i, r := range f.results {
		n := i + 1
		switch {
		case r.Skipped:
			if r.SkipReason == "" || r.SkipReason == "filtered out" {
				fmt.Fprintf(f.writer, "ok %d - %s # SKIP\n", n, r.Name)
			} else {
				fmt.Fprintf(f.writer, "ok %d - %s # SKIP %s\n", n, r.Name, r.SkipReason)
			}
		case r.Passed:
			fmt.Fprintf(f.writer, "ok %d - %s\n", n, r.Name)
		default:
			fmt.Fprintf(f.writer, "not ok %d - %s\n", n, r.Name)
			if err := f.writeDiagnostic(diagnosticFor(r)); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(f.writer, "# time %dms\n", totalDuration.Milliseconds())
	return nil
}

func (f *TAPFormatter) writeDiagnostic(d tapDiagnostic) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding tap diagnostic: %w", err)
	}
	fmt.Fprintf(f.writer, "  ---\n")
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		fmt.Fprintf(f.writer, "  %s\n", line)
	}
	fmt.Fprintf(f.writer, "  ...\n")
	return nil
}
