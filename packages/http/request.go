package http

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Request describes a single outgoing call. URL may contain {name} placeholders
// that are filled from PathParams when the final URL is built.
type Request struct {
	Method      string
	URL         string
	Headers     map[string]string
	Body        string
	Timeout     time.Duration
	PathParams  map[string]string
	QueryParams map[string]string
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:      method,
		URL:         requestURL,
		Headers:     make(map[string]string),
		PathParams:  make(map[string]string),
		QueryParams: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

func (r *Request) SetPathParam(key, value string) *Request {
	r.PathParams[key] = value
	return r
}

func (r *Request) SetQueryParam(key, value string) *Request {
	r.QueryParams[key] = value
	return r
}

// BuildURL expands path placeholders and appends query parameters.
// A placeholder without a matching path param is an error.
func (r *Request) BuildURL() (string, error) {
	var missing []string
	expanded := placeholderPattern.ReplaceAllStringFunc(r.URL, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := r.PathParams[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("missing path params: %s", strings.Join(missing, ", "))
	}

	if len(r.QueryParams) == 0 {
		return expanded, nil
	}

	u, err := url.Parse(expanded)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %v", err)
	}

	q := u.Query()
	for k, v := range r.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// JoinURL joins a base URI and a path, tolerating slashes on either side.
func JoinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
