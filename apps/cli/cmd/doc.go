// Package cmd implements the charspec CLI commands using Cobra.
//
// Available commands:
//   - init: Write a charspec.yaml holding the defaults
//   - run: Execute the built-in scenarios against a catalog
//   - list: Display the scenarios grouped by feature
//   - mock: Serve an in-memory catalog for local runs
//   - version: Show charspec version information
//
// Settings come from charspec.yaml, CHARSPEC_* environment variables and
// flags, in increasing precedence.
package cmd
