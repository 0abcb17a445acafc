// Package config contains everything related to configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// SecretKey is the environment variable holding the API secret.
const SecretKey = "OPENROUTER_API_KEY"

// DefaultEnvFile is where SaveSecret writes when no .env file was found.
const DefaultEnvFile = ".env"

// ErrMissingSecret is returned when no API secret is configured.
var ErrMissingSecret = errors.New(SecretKey + " is not set")

// Config holds the application configuration.
type Config struct {
	APIKey  string `env:"OPENROUTER_API_KEY"`
	BaseURL string `env:"BASE_URL" envDefault:"https://openrouter.ai/api/v1"`

	// OpenRouter attribution headers (optional)
	Referrer string `env:"OPENROUTER_REFERRER"`
	Title    string `env:"OPENROUTER_TITLE"`

	// Storage
	DatabasePath string        `env:"CHAT_DB_PATH" envDefault:"chat_cache.db"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"8"`
	BusyTimeout  time.Duration `env:"DB_BUSY_TIMEOUT" envDefault:"5s"`
	HistoryLimit int           `env:"HISTORY_LIMIT" envDefault:"50"`
	ExportsDir   string        `env:"EXPORTS_DIR" envDefault:"exports"`

	// Logging
	LogsDir  string `env:"LOGS_DIR" envDefault:"logs"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Background jobs, in cron syntax
	MonitorSchedule string        `env:"MONITOR_SCHEDULE" envDefault:"@every 1m"`
	BalanceSchedule string        `env:"BALANCE_SCHEDULE" envDefault:"@every 5m"`
	CacheTTL        time.Duration `env:"API_CACHE_TTL" envDefault:"5m"`

	// EnvFile is the .env file that was loaded, or DefaultEnvFile.
	EnvFile string
}

// Load reads configuration from .env files and environment variables.
// A missing secret is not an error here; see RequireSecret.
func Load() (*Config, error) {
	return LoadFrom(getEnvPaths()...)
}

// LoadFrom loads the first existing .env file among paths and then parses
// the environment. Variables already set in the environment win.
func LoadFrom(paths ...string) (*Config, error) {
	envFile := DefaultEnvFile
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
			envFile = path
			break
		}
	}

	cfg := &Config{EnvFile: envFile}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// RequireSecret returns ErrMissingSecret when no API secret is configured.
func (c *Config) RequireSecret() error {
	if c.APIKey == "" {
		return ErrMissingSecret
	}
	return nil
}

// SaveSecret writes secret into the .env file at path, keeping every other
// entry, and exports it to the running process.
func SaveSecret(path, secret string) error {
	if secret == "" {
		return ErrMissingSecret
	}

	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		values = make(map[string]string)
	} else if err != nil {
		return fmt.Errorf("failed to read env file: %w", err)
	}
	values[SecretKey] = secret

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create env directory: %w", err)
		}
	}
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict env file: %w", err)
	}

	return os.Setenv(SecretKey, secret)
}

// ReadSecret returns the secret stored in the .env file at path.
func ReadSecret(path string) (string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read env file: %w", err)
	}
	return values[SecretKey], nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	cwd, cwdErr := os.Getwd()
	if cwdErr == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "aichat", ".env"),
			filepath.Join(home, ".aichat", ".env"),
		)
	}

	// Parent directory (useful for development)
	if cwdErr == nil {
		paths = append(paths, filepath.Join(filepath.Dir(cwd), ".env"))
	}

	return paths
}
