package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the contract manager
type Config struct {
	AppName  string
	HTTPPort string

	// Database
	DatabaseHost string
	DatabasePort string
	DatabaseUser string
	DatabasePass string
	DatabaseName string

	// External notification delivery service
	NotifierEndpoint string

	// Expiry scanner
	ExpiryThresholdDays int

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig reads configuration from environment variables, with an
// optional yaml config file layered underneath. Environment wins.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app_name", "contract-manager")
	v.SetDefault("http_port", "7000")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_pass", "postgrespassword")
	v.SetDefault("db_name", "contract_manager_db")
	v.SetDefault("notifier_endpoint", "http://localhost:7100")
	v.SetDefault("expiry_threshold_days", 30)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.AutomaticEnv()

	cfg := &Config{
		AppName:             v.GetString("app_name"),
		HTTPPort:            v.GetString("http_port"),
		DatabaseHost:        v.GetString("db_host"),
		DatabasePort:        v.GetString("db_port"),
		DatabaseUser:        v.GetString("db_user"),
		DatabasePass:        v.GetString("db_pass"),
		DatabaseName:        v.GetString("db_name"),
		NotifierEndpoint:    v.GetString("notifier_endpoint"),
		ExpiryThresholdDays: v.GetInt("expiry_threshold_days"),
		LogLevel:            v.GetString("log_level"),
		LogFormat:           v.GetString("log_format"),
	}

	return cfg, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePass,
		c.DatabaseName,
	)
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT is required")
	}
	if c.DatabaseName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.NotifierEndpoint == "" {
		return fmt.Errorf("NOTIFIER_ENDPOINT is required")
	}
	if c.ExpiryThresholdDays <= 0 {
		return fmt.Errorf("EXPIRY_THRESHOLD_DAYS must be positive")
	}
	return nil
}
