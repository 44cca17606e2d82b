package config

import (
	"time"

	"github.com/abdul-hamid-achik/charspec/packages/catalog"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      catalog.DefaultBaseURL,
		Timeout:      30 * time.Second,
		RateLimit:    0,
		Headers:      nil,
		Reporters:    []string{"console"},
		OutputDir:    "",
		AttachDir:    "",
		Parallel:     BoolPtr(false),
		Concurrency:  5,
		Bail:         BoolPtr(false),
		Verbose:      BoolPtr(false),
		NoColor:      BoolPtr(false),
		CharacterIDs: []int{1, 2, 3, 4},
		MissingID:    999999,
		FilterStatus: "alive",
		FilterPage:   2,
		KnownID:      1,
		KnownName:    "Rick Sanchez",
		Repeat:       3,
	}
}
