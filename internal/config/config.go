package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr      = ":3001"
	DefaultAPIPrefix = "/api"

	// DefaultKeyFile is used when no credential is configured and it exists
	DefaultKeyFile = "service-account-key.json"
)

// Config represents the sheetboard configuration
type Config struct {
	SpreadsheetID         string `yaml:"spreadsheet_id"`
	ServiceAccountKey     string `yaml:"service_account_key"`      // inline or base64 JSON
	ServiceAccountKeyFile string `yaml:"service_account_key_file"` // path to a JSON key
	ClientEmail           string `yaml:"client_email"`             // with PrivateKey, instead of a JSON key
	PrivateKey            string `yaml:"private_key"`              // PEM, literal \n allowed
	Workbook              string `yaml:"workbook"`                 // local .xlsx instead of Google Sheets
	Addr                  string `yaml:"addr"`
	APIPrefix             string `yaml:"api_prefix"`
	SerializeMutations    bool   `yaml:"serialize_mutations"`
	LogLevel              string `yaml:"log_level"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Addr:      DefaultAddr,
		APIPrefix: DefaultAPIPrefix,
		LogLevel:  "info",
	}
}

// Load builds the configuration from an optional YAML file at path, then
// the given .env files (".env" when none are given; missing ones are
// skipped), then the process environment, which wins. Without any
// credential it falls back to GOOGLE_APPLICATION_CREDENTIALS and then
// DefaultKeyFile.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		// godotenv never overrides variables already in the environment
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if !cfg.hasCredentials() {
		if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
			cfg.ServiceAccountKeyFile = path
		} else if _, err := os.Stat(DefaultKeyFile); err == nil {
			cfg.ServiceAccountKeyFile = DefaultKeyFile
		}
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.SpreadsheetID, "GOOGLE_SPREADSHEET_ID")
	setString(&c.ServiceAccountKey, "GOOGLE_SERVICE_ACCOUNT_KEY")
	setString(&c.ServiceAccountKeyFile, "GOOGLE_SERVICE_ACCOUNT_KEY_FILE")
	setString(&c.ClientEmail, "GOOGLE_CLIENT_EMAIL")
	setString(&c.PrivateKey, "GOOGLE_PRIVATE_KEY")
	setString(&c.Workbook, "SHEETBOARD_WORKBOOK")
	setString(&c.APIPrefix, "SHEETBOARD_API_PREFIX")
	setString(&c.LogLevel, "SHEETBOARD_LOG_LEVEL")

	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	setString(&c.Addr, "SHEETBOARD_ADDR")

	if v := os.Getenv("SHEETBOARD_SERIALIZE_MUTATIONS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SHEETBOARD_SERIALIZE_MUTATIONS %q: %w", v, err)
		}
		c.SerializeMutations = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Level returns the slog level named by LogLevel, defaulting to info
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Backend names the backend the configuration selects: "workbook",
// "sheets" or "none"
func (c *Config) Backend() string {
	switch {
	case c.Workbook != "":
		return "workbook"
	case c.SpreadsheetID != "" && c.hasCredentials():
		return "sheets"
	default:
		return "none"
	}
}

func (c *Config) hasCredentials() bool {
	return c.ServiceAccountKey != "" || c.ServiceAccountKeyFile != "" ||
		(c.ClientEmail != "" && c.PrivateKey != "")
}
