package genkit

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the container-level configuration for the toolchain.
// Values come from defaults, an optional config file, and KILN_* environment
// variables, in increasing precedence.
type Config struct {
	MaxResolutionDepth int    `mapstructure:"max_resolution_depth"`
	StrictRegistration bool   `mapstructure:"strict_registration"`
	ValidateOnBuild    bool   `mapstructure:"validate_on_build"`
	LogLevel           string `mapstructure:"log_level"`
	OutputDir          string `mapstructure:"output_dir"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		MaxResolutionDepth: 32,
		ValidateOnBuild:    true,
		LogLevel:           "info",
		OutputDir:          "generated",
	}
}

// LoadConfig reads configuration from the optional file at path (any format
// viper supports) and from KILN_* environment variables (e.g. KILN_LOG_LEVEL,
// KILN_MAX_RESOLUTION_DEPTH).
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("max_resolution_depth", defaults.MaxResolutionDepth)
	v.SetDefault("strict_registration", defaults.StrictRegistration)
	v.SetDefault("validate_on_build", defaults.ValidateOnBuild)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("output_dir", defaults.OutputDir)

	v.SetEnvPrefix("KILN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the container cannot accept.
func (c Config) Validate() error {
	if c.MaxResolutionDepth < 1 {
		return fmt.Errorf("config: max_resolution_depth must be >= 1, got %d", c.MaxResolutionDepth)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("config: output_dir cannot be empty")
	}

	return nil
}
