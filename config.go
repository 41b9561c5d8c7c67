package snapgram

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/shibukawa/snapgram/store"
)

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

// Config represents the snapgram configuration
type Config struct {
	// Grammar is the builtin language name ("calc") or a grammar file path
	Grammar string       `yaml:"grammar"`
	REPL    REPLConfig   `yaml:"repl"`
	Store   StoreConfig  `yaml:"store"`
	Log     LogConfig    `yaml:"log"`
	Limits  LimitsConfig `yaml:"limits"`
}

// REPLConfig represents interactive session settings
type REPLConfig struct {
	Prompt      string `yaml:"prompt"`
	HistoryFile string `yaml:"history_file"`
	// Color is a pointer to distinguish between unset and false
	Color *bool `yaml:"color"`
}

// ColorEnabled returns true unless color is explicitly disabled
func (r REPLConfig) ColorEnabled() bool {
	return r.Color == nil || *r.Color
}

// StoreConfig represents identifier storage settings. An empty driver keeps
// identifiers in memory.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LogConfig represents diagnostic logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LimitsConfig bounds recursion while parsing and evaluating
type LimitsConfig struct {
	MaxParseDepth int `yaml:"max_parse_depth"`
	MaxEvalDepth  int `yaml:"max_eval_depth"`
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Return default configuration if file doesn't exist
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration data
func ParseConfig(data []byte) (*Config, error) {
	var config Config

	// Parse YAML with strict mode to detect unknown fields
	err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	driver := store.NormalizeDriver(config.Store.Driver)
	if driver != "memory" && !slices.Contains(store.Drivers(), driver) {
		return fmt.Errorf("%w: invalid store.driver '%s': must be one of memory, %s", ErrConfigValidation, config.Store.Driver, strings.Join(store.Drivers(), ", "))
	}

	if driver != "memory" && config.Store.DSN == "" {
		return fmt.Errorf("%w: store.dsn is required for driver '%s'", ErrConfigValidation, config.Store.Driver)
	}

	if config.Log.Level != "" {
		if _, err := ParseLogLevel(config.Log.Level); err != nil {
			return fmt.Errorf("%w: %w", ErrConfigValidation, err)
		}
	}

	validFormats := map[string]bool{"": true, "text": true, "json": true}
	if !validFormats[config.Log.Format] {
		return fmt.Errorf("%w: log.format '%s' is invalid: must be one of text, json", ErrConfigValidation, config.Log.Format)
	}

	if config.Limits.MaxParseDepth < 0 {
		return fmt.Errorf("%w: limits.max_parse_depth must be non-negative, got %d", ErrConfigValidation, config.Limits.MaxParseDepth)
	}

	if config.Limits.MaxEvalDepth < 0 {
		return fmt.Errorf("%w: limits.max_eval_depth must be non-negative, got %d", ErrConfigValidation, config.Limits.MaxEvalDepth)
	}

	return nil
}

// ParseLogLevel converts a level name into a slog level
func ParseLogLevel(name string) (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log.level '%s': %w", name, err)
	}

	return level, nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)

	return config
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) {
	if config.Grammar == "" {
		config.Grammar = "calc"
	}

	if config.REPL.Prompt == "" {
		config.REPL.Prompt = DefaultPrompt
	}

	config.Store.Driver = store.NormalizeDriver(config.Store.Driver)

	if config.Log.Level == "" {
		config.Log.Level = "warn"
	}

	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	plainEnvVar  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return plainEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

// expandConfigEnvVars expands environment variables in path and connection settings
func expandConfigEnvVars(config *Config) {
	config.Grammar = expandEnvVars(config.Grammar)
	config.REPL.HistoryFile = expandEnvVars(config.REPL.HistoryFile)
	config.Store.DSN = expandEnvVars(config.Store.DSN)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
