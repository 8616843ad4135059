// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase = "sqlite"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`

	// File paths
	StoragePath  string `mapstructure:"storagepath"`
	DatabaseName string `mapstructure:"-"` // Derived from other settings

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// Visit history defaults
	HistoryPageSize    int `mapstructure:"historypagesize"`
	HistoryMaxPageSize int `mapstructure:"historymaxpagesize"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "civitrack")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("storagepath", "storage")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbtype", SQLiteDatabase)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("historypagesize", 20)
		v.SetDefault("historymaxpagesize", 100)

		v.BindEnv("appname", "CIVITRACK_APP_NAME")
		v.BindEnv("appport", "CIVITRACK_APP_PORT")
		v.BindEnv("environment", "CIVITRACK_ENV")
		v.BindEnv("loglevel", "CIVITRACK_LOG_LEVEL")
		v.BindEnv("storagepath", "CIVITRACK_STORAGE_PATH")
		v.BindEnv("logsdir", "CIVITRACK_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "CIVITRACK_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "CIVITRACK_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "CIVITRACK_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbtype", "CIVITRACK_DB_TYPE")
		v.BindEnv("dbmaxopenconns", "CIVITRACK_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "CIVITRACK_DB_MAX_IDLE_CONNS")
		v.BindEnv("historypagesize", "CIVITRACK_HISTORY_PAGE_SIZE")
		v.BindEnv("historymaxpagesize", "CIVITRACK_HISTORY_MAX_PAGE_SIZE")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validDBTypes := map[string]bool{
		SQLiteDatabase: true,
	}
	if !validDBTypes[c.DatabaseType] {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.StoragePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// GetMaxOpenConns returns the configured max open connections, 0 meaning driver default
func (c *Config) GetMaxOpenConns() int {
	return c.DatabaseMaxOpenConns
}

// GetMaxIdleConns returns the configured max idle connections, 0 meaning driver default
func (c *Config) GetMaxIdleConns() int {
	return c.DatabaseMaxIdleConns
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}
