package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "contract-manager", cfg.AppName)
	assert.Equal(t, "7000", cfg.HTTPPort)
	assert.Equal(t, "contract_manager_db", cfg.DatabaseName)
	assert.Equal(t, 30, cfg.ExpiryThresholdDays)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("http_port: \"8080\"\nexpiry_threshold_days: 14\nlog_format: json\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 14, cfg.ExpiryThresholdDays)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	dsn := cfg.GetDSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=contract_manager_db")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestValidate(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	cfg.ExpiryThresholdDays = 0
	assert.Error(t, cfg.Validate())

	cfg.ExpiryThresholdDays = 30
	cfg.NotifierEndpoint = ""
	assert.Error(t, cfg.Validate())
}
