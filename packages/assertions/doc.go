// Package assertions provides batched test assertions for charspec scenarios.
//
// Supported checks:
//   - Equals (deep, numeric, then string-form equality)
//   - CaseInsensitiveEquals
//   - NonEmpty (strings, arrays, objects)
//   - AllMatch (reports the first offending element)
//   - IsNull / IsNotNull (absent and JSON null both count as null)
//   - GreaterThan
//   - Schema (JSON Schema validation)
//
// Every check runs and records a Result; a Batch reports all failures at once
// through Err instead of stopping at the first one.
package assertions
