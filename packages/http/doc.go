// Package http provides the HTTP client used by charspec scenarios.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts
//   - Redirect handling
//   - Path templates ({id}) and query parameters
//   - GraphQL request bodies
//   - Optional client-side throttling
//   - Response body reading
package http
