package catalog

import (
	"fmt"
	"slices"

	"github.com/abdul-hamid-achik/charspec/packages/http"
)

// StatusError is returned when a response carries an unexpected status code.
type StatusError struct {
	Method   string
	URL      string
	Expected []int
	Actual   int
	Body     string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s %s: expected status %v, got %d: %s", e.Method, e.URL, e.Expected, e.Actual, body)
}

// ExpectStatus returns a *StatusError unless resp.StatusCode is one of codes.
func ExpectStatus(resp *http.Response, codes ...int) error {
	if slices.Contains(codes, resp.StatusCode) {
		return nil
	}
	return &StatusError{
		Method:   resp.Method,
		URL:      resp.URL,
		Expected: codes,
		Actual:   resp.StatusCode,
		Body:     resp.BodyString(),
	}
}
