package extract

import (
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/charspec/packages/http"
	"github.com/tidwall/gjson"
)

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// Value is the result of a path lookup. The zero Value is absent.
type Value struct {
	result  gjson.Result
	present bool
}

// Absent returns the absent marker
func Absent() Value {
	return Value{}
}

func fromResult(r gjson.Result) Value {
	if !r.Exists() {
		return Absent()
	}
	return Value{result: r, present: true}
}

// Present reports whether the path resolved, including to JSON null.
func (v Value) Present() bool {
	return v.present
}

// IsNull reports a present JSON null.
func (v Value) IsNull() bool {
	return v.present && v.result.Type == gjson.Null
}

// Missing reports absent or null, the two shapes of "no value" the API uses.
func (v Value) Missing() bool {
	return !v.present || v.result.Type == gjson.Null
}

func (v Value) IsArray() bool {
	return v.present && v.result.IsArray()
}

func (v Value) IsObject() bool {
	return v.present && v.result.IsObject()
}

// String returns the value as a string; "" when absent or null.
func (v Value) String() string {
	if v.Missing() {
		return ""
	}
	return v.result.String()
}

func (v Value) Int() int64 {
	if v.Missing() {
		return 0
	}
	return v.result.Int()
}

// Len is the element count for arrays, the key count for objects, and the
// length of the string form otherwise. Absent and null have length 0.
func (v Value) Len() int {
	switch {
	case v.Missing():
		return 0
	case v.result.IsArray():
		return len(v.result.Array())
	case v.result.IsObject():
		return len(v.result.Map())
	default:
		return len(v.result.String())
	}
}

// Array returns the elements of an array value, nil otherwise.
func (v Value) Array() []Value {
	if !v.IsArray() {
		return nil
	}
	items := v.result.Array()
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = Value{result: item, present: true}
	}
	return out
}

// Get resolves a path relative to this value.
func (v Value) Get(path string) Value {
	if !v.present {
		return Absent()
	}
	if path == "" {
		return v
	}
	return fromResult(v.result.Get(normalizePath(path)))
}

// Raw returns the raw JSON text, "" when absent.
func (v Value) Raw() string {
	if !v.present {
		return ""
	}
	return v.result.Raw
}

// Interface returns the decoded Go value (nil when absent).
func (v Value) Interface() any {
	if !v.present {
		return nil
	}
	return v.result.Value()
}

// Extractor resolves paths against one response body.
type Extractor struct {
	response *http.Response
	root     Value
}

func NewExtractor(resp *http.Response) *Extractor {
	e := &Extractor{response: resp}
	if resp != nil && (resp.IsJSON() || gjson.ValidBytes(resp.Body)) {
		e.root = fromResult(gjson.ParseBytes(resp.Body))
	}
	return e
}

// Extract returns the value at path, or an absent Value.
func (e *Extractor) Extract(path string) Value {
	return e.root.Get(path)
}

// Root returns the whole body; absent when the body is not JSON.
func (e *Extractor) Root() Value {
	return e.root
}

// Extract is a shorthand for NewExtractor(resp).Extract(path).
func Extract(resp *http.Response, path string) Value {
	return NewExtractor(resp).Extract(path)
}

// Parse wraps a raw JSON document.
func Parse(raw string) Value {
	if !gjson.Valid(raw) {
		return Absent()
	}
	return fromResult(gjson.Parse(raw))
}

// normalizePath converts array bracket notation to gjson dot notation
// e.g., "[0].id" -> "0.id", "items[0].tags[1]" -> "items.0.tags.1"
func normalizePath(path string) string {
	result := bracketIndex.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(result, ".")
}
