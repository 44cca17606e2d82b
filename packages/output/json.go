package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/charspec/packages/scenario"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	RunID    string       `json:"runId"`
	BaseURL  string       `json:"baseUrl"`
	Summary  JSONSummary  `json:"summary"`
	Latency  *JSONLatency `json:"latency,omitempty"`
	Tests    []JSONTest   `json:"tests"`
	Duration float64      `json:"duration"`
	Time     string       `json:"time"`
}

// JSONSummary represents the test summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONLatency is the request latency digest in milliseconds
type JSONLatency struct {
	Requests int64   `json:"requests"`
	Errors   int64   `json:"errors"`
	P50      float64 `json:"p50"`
	P95      float64 `json:"p95"`
	P99      float64 `json:"p99"`
	Max      float64 `json:"max"`
}

// JSONTest represents a single scenario result
type JSONTest struct {
	Name        string           `json:"name"`
	Feature     string           `json:"feature"`
	Story       string           `json:"story,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Passed      bool             `json:"passed"`
	Skipped     bool             `json:"skipped,omitempty"`
	SkipReason  string           `json:"skipReason,omitempty"`
	Duration    float64          `json:"duration"`
	Error       string           `json:"error,omitempty"`
	Kind        string           `json:"kind,omitempty"`
	Assertions  []JSONAssertion  `json:"assertions,omitempty"`
	Attachments []JSONAttachment `json:"attachments,omitempty"`
}

// JSONAssertion represents an assertion result
type JSONAssertion struct {
	Subject  string `json:"subject"`
	Operator string `json:"operator"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

// JSONAttachment is one report artifact
type JSONAttachment struct {
	Label     string `json:"label"`
	MediaType string `json:"mediaType"`
	Payload   string `json:"payload"`
}

// JSONFormatter formats scenario results as JSON
type JSONFormatter struct {
	writer  io.Writer
	runID   string
	baseURL string
	latency *JSONLatency
	results []JSONTest
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONTest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (f *JSONFormatter) FormatResult(result *scenario.RunResult) {
	f.runID = result.RunID
	f.baseURL = result.BaseURL
	if result.Latency.Requests > 0 {
		f.latency = &JSONLatency{
			Requests: result.Latency.Requests,
			Errors:   result.Latency.Errors,
			P50:      millis(result.Latency.P50),
			P95:      millis(result.Latency.P95),
			P99:      millis(result.Latency.P99),
			Max:      millis(result.Latency.Max),
		}
	}

	for _, r := range result.Results {
		test := JSONTest{
			Name:     r.Name,
			Feature:  string(r.Feature),
			Story:    r.Story,
			Tags:     r.Tags,
			Passed:   r.Passed,
			Skipped:  r.Skipped,
			Duration: float64(r.Duration.Milliseconds()),
			Kind:     string(r.Kind),
		}

		if r.SkipReason != "" && r.SkipReason != "filtered out" {
			test.SkipReason = r.SkipReason
		}

		if r.Error != nil {
			test.Error = r.Error.Error()
		}

		if len(r.Assertions) > 0 {
			test.Assertions = make([]JSONAssertion, len(r.Assertions))
			for i, a := range r.Assertions {
				test.Assertions[i] = JSONAssertion{
					Subject:  a.Subject,
					Operator: a.Operator,
					Expected: a.Expected,
					Actual:   a.Actual,
					Passed:   a.Passed,
					Message:  a.Message,
				}
			}
		}

		for _, a := range r.Attachments {
			test.Attachments = append(test.Attachments, JSONAttachment{
				Label:     a.Label,
				MediaType: a.MediaType,
				Payload:   a.Payload,
			})
		}

		f.results = append(f.results, test)
	}
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed, skipped int
	for _, t := range f.results {
		if t.Skipped {
			skipped++
		} else if t.Passed {
			passed++
		} else {
			failed++
		}
	}

	output := JSONOutput{
		RunID:   f.runID,
		BaseURL: f.baseURL,
		Summary: JSONSummary{
			Total:   len(f.results),
			Passed:  passed,
			Failed:  failed,
			Skipped: skipped,
		},
		Latency:  f.latency,
		Tests:    f.results,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
