// Package config handles configuration loading and management for charspec.
//
// Settings are layered in this order, later layers winning:
//   - DefaultConfig
//   - charspec.yaml, .charspec.yaml or .charspec.yml
//   - CHARSPEC_* environment variables
//   - command line flags, applied by the CLI through Merge
package config
