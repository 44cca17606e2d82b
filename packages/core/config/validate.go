package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// KnownReporters are the accepted values for Reporters
var KnownReporters = []string{"console", "json", "junit", "tap"}

// ValidationError describes one invalid setting
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// Validate checks the merged configuration before a run. All problems are
// joined into a single error.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	u, err := url.Parse(c.BaseURL)
	switch {
	case c.BaseURL == "":
		invalid("baseUrl", "must not be empty")
	case err != nil:
		invalid("baseUrl", "%v", err)
	case u.Scheme != "http" && u.Scheme != "https":
		invalid("baseUrl", "scheme must be http or https, got %q", u.Scheme)
	case u.Host == "":
		invalid("baseUrl", "missing host")
	}

	if c.Timeout < 0 {
		invalid("timeout", "must not be negative")
	}
	if c.RateLimit < 0 {
		invalid("rateLimit", "must not be negative")
	}
	if c.Concurrency <= 0 {
		invalid("concurrency", "must be positive, got %d", c.Concurrency)
	}
	if len(c.CharacterIDs) == 0 {
		invalid("characterIds", "at least one id is required")
	}
	for _, id := range c.CharacterIDs {
		if id <= 0 {
			invalid("characterIds", "ids must be positive, got %d", id)
		}
	}
	if c.MissingID <= 0 {
		invalid("missingId", "must be positive, got %d", c.MissingID)
	}
	if c.FilterPage < 1 {
		invalid("filterPage", "pages start at 1, got %d", c.FilterPage)
	}
	if strings.TrimSpace(c.FilterStatus) == "" {
		invalid("filterStatus", "must not be empty")
	}
	for _, r := range c.Reporters {
		if !slices.Contains(KnownReporters, r) {
			invalid("reporters", "unknown reporter %q (want one of %s)", r, strings.Join(KnownReporters, ", "))
		}
	}

	return errors.Join(errs...)
}
