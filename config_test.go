package snapgram

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestLoadConfig_StrictMode_UnknownKeys(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "snapgram.yaml")

	configContent := `
grammar: calc
unknown_key: "should cause error"
repl:
  prompt: "> "
  unknown_repl_key: "should also cause error"
`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	assert.NoError(t, err)

	_, err = LoadConfig(configPath)
	assert.Error(t, err, "expected error for unknown keys in strict mode")
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfig_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "snapgram.yaml")

	configContent := `
grammar: ./grammars/calc.yaml
repl:
  prompt: "calc> "
  history_file: ~/.snapgram_history
  color: false
store:
  driver: sqlite3
  dsn: "file:identifiers.db"
log:
  level: debug
  format: json
limits:
  max_parse_depth: 200
`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	assert.NoError(t, err)

	config, err := LoadConfig(configPath)
	assert.NoError(t, err)
	assert.Equal(t, "./grammars/calc.yaml", config.Grammar)
	assert.Equal(t, "calc> ", config.REPL.Prompt)
	assert.False(t, config.REPL.ColorEnabled())
	assert.Equal(t, "sqlite3", config.Store.Driver)
	assert.Equal(t, "file:identifiers.db", config.Store.DSN)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, 200, config.Limits.MaxParseDepth)
	assert.Equal(t, 0, config.Limits.MaxEvalDepth)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, getDefaultConfig(), config)
}

func TestParseConfig_Defaults(t *testing.T) {
	config, err := ParseConfig([]byte("{}"))
	assert.NoError(t, err)
	assert.Equal(t, "calc", config.Grammar)
	assert.Equal(t, DefaultPrompt, config.REPL.Prompt)
	assert.True(t, config.REPL.ColorEnabled())
	assert.Equal(t, "memory", config.Store.Driver)
	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
}

func TestParseConfig_ExpandsEnvVars(t *testing.T) {
	t.Setenv("SNAPGRAM_TEST_DSN", "postgres://user@localhost/grammar")
	t.Setenv("SNAPGRAM_TEST_HOME", "/home/tester")

	config, err := ParseConfig([]byte(`
store:
  driver: pgx
  dsn: ${SNAPGRAM_TEST_DSN}
repl:
  history_file: $SNAPGRAM_TEST_HOME/.history
`))
	assert.NoError(t, err)
	assert.Equal(t, "postgres://user@localhost/grammar", config.Store.DSN)
	assert.Equal(t, "/home/tester/.history", config.REPL.HistoryFile)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		message string
	}{
		{
			name:    "invalid driver",
			config:  Config{Store: StoreConfig{Driver: "oracle"}},
			message: "invalid store.driver 'oracle'",
		},
		{
			name:    "missing dsn",
			config:  Config{Store: StoreConfig{Driver: "mysql"}},
			message: "store.dsn is required for driver 'mysql'",
		},
		{
			name:    "invalid level",
			config:  Config{Log: LogConfig{Level: "loud"}},
			message: "invalid log.level 'loud'",
		},
		{
			name:    "invalid format",
			config:  Config{Log: LogConfig{Format: "xml"}},
			message: "log.format 'xml' is invalid",
		},
		{
			name:    "negative parse depth",
			config:  Config{Limits: LimitsConfig{MaxParseDepth: -1}},
			message: "limits.max_parse_depth must be non-negative",
		},
		{
			name:    "negative eval depth",
			config:  Config{Limits: LimitsConfig{MaxEvalDepth: -5}},
			message: "limits.max_eval_depth must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(&tt.config)
			assert.IsError(t, err, ErrConfigValidation)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	t.Run("valid", func(t *testing.T) {
		config := Config{Store: StoreConfig{Driver: "pgx", DSN: "postgres://localhost/db"}, Log: LogConfig{Level: "INFO"}}
		assert.NoError(t, validateConfig(&config))
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info+2", slog.LevelInfo + 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := ParseLogLevel(tt.name)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestParseConfig_NormalizesDriver(t *testing.T) {
	config, err := ParseConfig([]byte("store:\n  driver: PostgreSQL\n  dsn: postgres://localhost/db\n"))
	assert.NoError(t, err)
	assert.Equal(t, "pgx", config.Store.Driver)
}
