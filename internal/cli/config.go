package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"csn-resolver/internal/engine"
)

const (
	maxWalkDepth = 25
	envPrefix    = "CSNRESOLVER"
)

// ConfigNames are the file names looked up during auto-discovery, in order
// of preference.
var ConfigNames = []string{"csn-resolver.yaml", "csn-resolver.yml"}

// Config represents the configuration from csn-resolver.yaml.
type Config struct {
	// Model is the default model file.
	Model string `mapstructure:"model" json:"model"`

	Output OutputConfig `mapstructure:"output" json:"output"`
	Log    LogConfig    `mapstructure:"log" json:"log"`
	Engine EngineConfig `mapstructure:"engine" json:"engine"`
}

// OutputConfig controls how reports are printed.
type OutputConfig struct {
	Format string `mapstructure:"format" json:"format"` // text, yaml or json
	Infos  bool   `mapstructure:"infos" json:"infos"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"` // text or json
}

// EngineConfig holds resolution pass settings.
type EngineConfig struct {
	ExpandTuples    bool `mapstructure:"expand_tuples" json:"expand_tuples"`
	ValidateQueries bool `mapstructure:"validate_queries" json:"validate_queries"`
	FailOnWarnings  bool `mapstructure:"fail_on_warnings" json:"fail_on_warnings"`
}

// Options converts the engine settings.
func (c EngineConfig) Options() engine.Options {
	return engine.Options{
		ExpandTuples:    c.ExpandTuples,
		ValidateQueries: c.ValidateQueries,
		FailOnWarnings:  c.FailOnWarnings,
	}
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults. Flags are applied by the caller.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, configPath, err
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	defaults := engine.DefaultOptions()

	v.SetDefault("model", "")

	v.SetDefault("output.format", "text")
	v.SetDefault("output.infos", false)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetDefault("engine.expand_tuples", defaults.ExpandTuples)
	v.SetDefault("engine.validate_queries", defaults.ValidateQueries)
	v.SetDefault("engine.fail_on_warnings", defaults.FailOnWarnings)
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "text", "yaml", "json":
	default:
		return fmt.Errorf("output.format: unknown format %q", c.Output.Format)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for csn-resolver.yaml or
// csn-resolver.yml, stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}

		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for range maxWalkDepth {
		for _, name := range ConfigNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return "", nil
}

// ResolvedModel returns the model path to use, with the command argument
// taking precedence over the configured default.
func (c *Config) ResolvedModel(arg string) string {
	if arg != "" {
		return arg
	}

	return c.Model
}
