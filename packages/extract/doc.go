// Package extract reads values out of JSON response bodies by path.
//
// Paths use dot notation with optional bracket indexes:
//   - name
//   - origin.name
//   - data.characters.results[0].status
//
// A path that does not resolve yields an absent Value rather than an error, so
// callers decide whether absence is expected (an "errors" field missing on a
// successful GraphQL call) or a failure.
package extract
