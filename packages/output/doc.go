// Package output provides formatters for displaying scenario results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output, attachments included
//   - JUnit: JUnit XML format for CI integration
//   - TAP: Test Anything Protocol format
//
// JSON, JUnit and TAP accumulate results and write them on Flush.
package output
