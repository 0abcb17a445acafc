package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	SecretKey, "BASE_URL", "CHAT_DB_PATH", "EXPORTS_DIR", "LOGS_DIR", "LOG_LEVEL",
	"HISTORY_LIMIT", "DB_MAX_OPEN_CONNS", "DB_BUSY_TIMEOUT", "MONITOR_SCHEDULE",
	"BALANCE_SCHEDULE", "API_CACHE_TTL", "OPENROUTER_REFERRER", "OPENROUTER_TITLE",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.BaseURL)
	assert.Equal(t, "chat_cache.db", cfg.DatabasePath)
	assert.Equal(t, "exports", cfg.ExportsDir)
	assert.Equal(t, "logs", cfg.LogsDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, 8, cfg.MaxOpenConns)
	assert.Equal(t, 5*time.Second, cfg.BusyTimeout)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "@every 1m", cfg.MonitorSchedule)
	assert.Equal(t, DefaultEnvFile, cfg.EnvFile)
	assert.ErrorIs(t, cfg.RequireSecret(), ErrMissingSecret)
}

func TestLoadFrom_EnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "OPENROUTER_API_KEY=sk-file\nBASE_URL=http://localhost:9999\nDB_BUSY_TIMEOUT=250ms\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := LoadFrom(filepath.Join(dir, "first.env"), envFile)
	require.NoError(t, err)

	assert.Equal(t, "sk-file", cfg.APIKey)
	assert.Equal(t, "http://localhost:9999", cfg.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.BusyTimeout)
	assert.Equal(t, envFile, cfg.EnvFile)
	assert.NoError(t, cfg.RequireSecret())
}

func TestLoadFrom_EnvironmentWins(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadFrom(envFile)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadFrom_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("HISTORY_LIMIT", "lots")

	_, err := LoadFrom()
	assert.Error(t, err)
}

func TestSaveSecret_KeepsOtherEntries(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BASE_URL=http://example\nOPENROUTER_API_KEY=old\n"), 0o600))

	require.NoError(t, SaveSecret(envFile, "sk-new"))

	secret, err := ReadSecret(envFile)
	require.NoError(t, err)
	assert.Equal(t, "sk-new", secret)

	cfg, err := LoadFrom(envFile)
	require.NoError(t, err)
	assert.Equal(t, "http://example", cfg.BaseURL)
	assert.Equal(t, "sk-new", os.Getenv(SecretKey))
}

func TestSaveSecret_CreatesFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "nested", ".env")

	require.NoError(t, SaveSecret(envFile, "sk-created"))

	info, err := os.Stat(envFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveSecret_Empty(t *testing.T) {
	assert.ErrorIs(t, SaveSecret(filepath.Join(t.TempDir(), ".env"), ""), ErrMissingSecret)
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Fatal("getEnvPaths() returned empty list")
	}

	cwd, _ := os.Getwd()
	assert.Equal(t, filepath.Join(cwd, ".env"), paths[0])
}

func TestWatcher(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("OPENROUTER_API_KEY=first\n"), 0o600))

	var latest atomic.Value
	var calls atomic.Int32
	w, err := NewWatcher(envFile, func(secret string) {
		latest.Store(secret)
		calls.Add(1)
	}, nil)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, SaveSecret(envFile, "second"))

	assert.Eventually(t, func() bool {
		v, _ := latest.Load().(string)
		return v == "second"
	}, 3*time.Second, 20*time.Millisecond)

	// Rewriting the same value is not a change.
	before := calls.Load()
	require.NoError(t, SaveSecret(envFile, "second"))
	time.Sleep(3 * debounceInterval)
	assert.Equal(t, before, calls.Load())
}

func TestWatcher_CloseTwice(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), ".env"), nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
