package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every field's env tag.
const EnvPrefix = "CHARSPEC_"

// FromEnv reads CHARSPEC_* variables into a partial Config. Unset variables
// leave their fields zero so the result can be passed to Merge.
func FromEnv() (*Config, error) {
	return fromEnv(env.Options{Prefix: EnvPrefix})
}

func fromEnv(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
