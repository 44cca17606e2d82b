package assertions

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/charspec/packages/extract"
	"github.com/xeipuuv/gojsonschema"
)

type Result struct {
	Passed   bool
	Message  string
	Expected any
	Actual   any
	Subject  string
	Operator string
}

// AssertionError carries every failed Result of a batch.
type AssertionError struct {
	Batch    string
	Failures []*Result
}

func (e *AssertionError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s %s: %s", f.Subject, f.Operator, f.Message)
	}
	prefix := fmt.Sprintf("%d assertion(s) failed", len(e.Failures))
	if e.Batch != "" {
		prefix = e.Batch + ": " + prefix
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

// Batch accumulates results. It is not safe for concurrent use.
type Batch struct {
	name    string
	results []*Result
}

func NewBatch(name string) *Batch {
	return &Batch{name: name}
}

func (b *Batch) Name() string {
	return b.name
}

func (b *Batch) record(subject, operator string, expected, actual any, passed bool, msg string) *Result {
	r := &Result{
		Passed:   passed,
		Message:  msg,
		Expected: expected,
		Actual:   actual,
		Subject:  subject,
		Operator: operator,
	}
	b.results = append(b.results, r)
	return r
}

func (b *Batch) Equals(subject string, actual, expected any) *Result {
	actual, expected = unwrap(actual), unwrap(expected)
	passed, msg := equals(actual, expected)
	return b.record(subject, "equals", expected, actual, passed, msg)
}

func (b *Batch) CaseInsensitiveEquals(subject string, actual, expected any) *Result {
	actual, expected = unwrap(actual), unwrap(expected)
	if actual == nil {
		return b.record(subject, "equalsIgnoreCase", expected, actual, false, fmt.Sprintf("expected %v, got null", expected))
	}
	a, e := fmt.Sprintf("%v", actual), fmt.Sprintf("%v", expected)
	if strings.EqualFold(a, e) {
		return b.record(subject, "equalsIgnoreCase", expected, actual, true, "")
	}
	return b.record(subject, "equalsIgnoreCase", expected, actual, false, fmt.Sprintf("expected %q (any case), got %q", e, a))
}

func (b *Batch) NonEmpty(subject string, actual any) *Result {
	actual = unwrap(actual)
	if actual == nil {
		return b.record(subject, "nonEmpty", nil, actual, false, "expected non-empty value, got null")
	}
	n := computeLength(actual)
	if n == -1 {
		return b.record(subject, "nonEmpty", nil, actual, false, fmt.Sprintf("cannot get length of %T", actual))
	}
	if n == 0 {
		return b.record(subject, "nonEmpty", nil, actual, false, "expected non-empty value")
	}
	return b.record(subject, "nonEmpty", nil, actual, true, "")
}

func (b *Batch) IsNull(subject string, actual any) *Result {
	actual = unwrap(actual)
	if actual == nil {
		return b.record(subject, "isNull", nil, nil, true, "")
	}
	return b.record(subject, "isNull", nil, actual, false, fmt.Sprintf("expected null, got %s", formatValue(actual)))
}

func (b *Batch) IsNotNull(subject string, actual any) *Result {
	actual = unwrap(actual)
	if actual != nil {
		return b.record(subject, "isNotNull", nil, actual, true, "")
	}
	return b.record(subject, "isNotNull", nil, nil, false, "expected a value, got null")
}

func (b *Batch) GreaterThan(subject string, actual, threshold any) *Result {
	actual, threshold = unwrap(actual), unwrap(threshold)
	a, aOk := toFloat64(actual)
	t, tOk := toFloat64(threshold)
	if !aOk || !tOk {
		return b.record(subject, ">", threshold, actual, false, fmt.Sprintf("cannot compare non-numeric values: %v > %v", actual, threshold))
	}
	if a > t {
		return b.record(subject, ">", threshold, actual, true, "")
	}
	return b.record(subject, ">", threshold, actual, false, fmt.Sprintf("expected %v > %v", actual, threshold))
}

// Check records an arbitrary boolean property. The message is used only on failure.
func (b *Batch) Check(subject string, ok bool, format string, args ...any) *Result {
	if ok {
		return b.record(subject, "check", true, true, true, "")
	}
	return b.record(subject, "check", true, false, false, fmt.Sprintf(format, args...))
}

// Fail records an unconditional failure.
func (b *Batch) Fail(subject, msg string) *Result {
	return b.record(subject, "fail", nil, nil, false, msg)
}

// Schema validates a JSON document against a JSON Schema.
func (b *Batch) Schema(subject string, schemaJSON, document []byte) *Result {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return b.record(subject, "schema", nil, string(document), false, fmt.Sprintf("schema validation error: %v", err))
	}
	if result.Valid() {
		return b.record(subject, "schema", nil, nil, true, "")
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return b.record(subject, "schema", nil, nil, false, fmt.Sprintf("schema validation failed: %s", strings.Join(errs, "; ")))
}

// AllMatch checks pred against every item and fails naming the first offender.
func AllMatch[T any](b *Batch, subject, description string, items []T, pred func(T) bool) *Result {
	for i, item := range items {
		if !pred(item) {
			actual := unwrap(item)
			return b.record(subject, "allMatch", description, actual, false,
				fmt.Sprintf("item[%d] = %s does not satisfy %s", i, formatValue(actual), description))
		}
	}
	return b.record(subject, "allMatch", description, len(items), true, "")
}

// Merge appends the results of other, prefixing subjects with its name.
func (b *Batch) Merge(other *Batch) {
	if other == nil {
		return
	}
	for _, r := range other.results {
		cp := *r
		if other.name != "" {
			cp.Subject = other.name + "." + cp.Subject
		}
		b.results = append(b.results, &cp)
	}
}

func (b *Batch) Results() []*Result {
	return b.results
}

func (b *Batch) Failures() []*Result {
	var out []*Result
	for _, r := range b.results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func (b *Batch) Passed() bool {
	return len(b.Failures()) == 0
}

// Err returns an *AssertionError listing every failure, or nil.
func (b *Batch) Err() error {
	failures := b.Failures()
	if len(failures) == 0 {
		return nil
	}
	return &AssertionError{Batch: b.name, Failures: failures}
}

// unwrap turns extract.Values into plain Go values; absent and null become nil.
func unwrap(v any) any {
	if ev, ok := v.(extract.Value); ok {
		if ev.Missing() {
			return nil
		}
		return ev.Interface()
	}
	return v
}

func equals(actual, expected any) (bool, string) {
	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}

	// Two strings are compared byte for byte, never as numbers.
	if _, ok := actual.(string); ok {
		if _, ok := expected.(string); ok {
			return false, fmt.Sprintf("expected %v, got %v", formatValue(expected), formatValue(actual))
		}
	}

	actualNum, aOk := toFloat64(actual)
	expectedNum, eOk := toFloat64(expected)
	if aOk && eOk && actualNum == expectedNum {
		return true, ""
	}

	if actual != nil && expected != nil {
		if fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected) {
			return true, ""
		}
	}

	return false, fmt.Sprintf("expected %v, got %v", formatValue(expected), formatValue(actual))
}

// computeLength returns the length of a value, or -1 if length cannot be computed
func computeLength(actual any) int {
	switch v := actual.(type) {
	case string:
		return len(v)
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	default:
		rv := reflect.ValueOf(actual)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
			return rv.Len()
		default:
			return -1
		}
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// formatValue summarizes large values for messages
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	case string:
		return strconv.Quote(truncate(val, 100))
	}
	return truncate(fmt.Sprintf("%v", v), 100)
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
