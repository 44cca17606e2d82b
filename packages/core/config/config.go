package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the charspec configuration
type Config struct {
	BaseURL     string            `yaml:"baseUrl,omitempty" env:"BASE_URL"`
	Timeout     time.Duration     `yaml:"timeout,omitempty" env:"TIMEOUT"`
	RateLimit   float64           `yaml:"rateLimit,omitempty" env:"RATE_LIMIT"` // requests per second, 0 = unlimited
	Headers     map[string]string `yaml:"headers,omitempty" env:"HEADERS"`      // Default headers for all requests
	Reporters   []string          `yaml:"reporters,omitempty" env:"REPORTERS"`  // Output reporters
	OutputDir   string            `yaml:"outputDir,omitempty" env:"OUTPUT_DIR"` // Directory for output files
	AttachDir   string            `yaml:"attachDir,omitempty" env:"ATTACH_DIR"` // Directory for response attachments
	Parallel    *bool             `yaml:"parallel,omitempty" env:"PARALLEL"`
	Concurrency int               `yaml:"concurrency,omitempty" env:"CONCURRENCY"` // Number of parallel scenarios
	Bail        *bool             `yaml:"bail,omitempty" env:"BAIL"`
	Verbose     *bool             `yaml:"verbose,omitempty" env:"VERBOSE"`
	NoColor     *bool             `yaml:"noColor,omitempty" env:"NO_COLOR"`

	// Scenario inputs
	CharacterIDs []int  `yaml:"characterIds,omitempty" env:"CHARACTER_IDS"`
	MissingID    int    `yaml:"missingId,omitempty" env:"MISSING_ID"`
	FilterStatus string `yaml:"filterStatus,omitempty" env:"FILTER_STATUS"`
	FilterPage   int    `yaml:"filterPage,omitempty" env:"FILTER_PAGE"`
	KnownID      int    `yaml:"knownId,omitempty" env:"KNOWN_ID"`
	KnownName    string `yaml:"knownName,omitempty" env:"KNOWN_NAME"`
	Repeat       int    `yaml:"repeat,omitempty" env:"REPEAT"`
}

// BoolPtr returns a pointer to b, for setting the optional flags.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetParallel returns the parallel setting, defaulting to false
func (c *Config) GetParallel() bool {
	return getBool(c.Parallel, false)
}

// GetBail returns the bail setting, defaulting to false
func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	"charspec.yaml",
	".charspec.yaml",
	".charspec.yml",
}

// Load reads the config file (path, or the first of ConfigFilenames in the
// working directory) and applies CHARSPEC_* environment overrides on top.
func Load(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	overrides, err := FromEnv()
	if err != nil {
		return nil, err
	}
	return cfg.Merge(overrides), nil
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return DefaultConfig().Merge(&fromFile), nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.OutputDir != "" {
		result.OutputDir = other.OutputDir
	}
	if other.AttachDir != "" {
		result.AttachDir = other.AttachDir
	}
	if other.Concurrency > 0 {
		result.Concurrency = other.Concurrency
	}
	if other.MissingID > 0 {
		result.MissingID = other.MissingID
	}
	if other.FilterStatus != "" {
		result.FilterStatus = other.FilterStatus
	}
	if other.FilterPage > 0 {
		result.FilterPage = other.FilterPage
	}
	if other.KnownID > 0 {
		result.KnownID = other.KnownID
	}
	if other.KnownName != "" {
		result.KnownName = other.KnownName
	}
	if other.Repeat > 0 {
		result.Repeat = other.Repeat
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Parallel != nil {
		result.Parallel = other.Parallel
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Merge headers
	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	if len(other.Reporters) > 0 {
		result.Reporters = other.Reporters
	}
	if len(other.CharacterIDs) > 0 {
		result.CharacterIDs = other.CharacterIDs
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
