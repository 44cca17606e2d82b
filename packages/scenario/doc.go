// Package scenario defines the built-in catalog scenarios and runs them.
//
// It provides functionality for:
//   - Registering scenarios per feature (rest, graphql, cross)
//   - Filtering by feature, name pattern and tags
//   - Sequential or parallel execution with configurable concurrency
//   - Collecting assertions, attachments and request latency per run
//
// Scenarios share nothing except the HTTP client, so parallel mode needs no
// ordering between them.
package scenario
