// Package config provides configuration management for usageref.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	// DefaultWorkerPort is the default HTTP port for the worker service.
	DefaultWorkerPort = 38080

	// DefaultMaxConns is the default database pool size.
	DefaultMaxConns = 4

	// DefaultPageSize is the default number of rows per page.
	DefaultPageSize = 20

	// DefaultLogLevel is the default zerolog level name.
	DefaultLogLevel = "info"

	// DefaultMaintenanceIntervalMinutes is how often the store is optimized.
	DefaultMaintenanceIntervalMinutes = 60
)

// Environment variables that override settings file values.
const (
	EnvWorkerPort = "USAGEREF_WORKER_PORT"
	EnvDBDSN      = "USAGEREF_DB_DSN"
	EnvLogLevel   = "USAGEREF_LOG_LEVEL"
	EnvDataDir    = "USAGEREF_DATA_DIR"
)

// Config holds the application configuration.
type Config struct {
	// Database settings: a SQLite file path or a postgres:// DSN
	DBDSN    string `json:"db_dsn"`
	LogLevel string `json:"log_level"`

	// Worker settings
	WorkerPort int `json:"worker_port"`
	MaxConns   int `json:"max_conns"`
	PageSize   int `json:"page_size"`

	// Scheduled maintenance; zero disables it
	MaintenanceIntervalMinutes int `json:"maintenance_interval_minutes"`

	// Debug SQL logging through GORM
	LogSQL bool `json:"log_sql"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// DataDir returns the data directory path (~/.usageref unless overridden).
func DataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".usageref")
}

// DBPath returns the default SQLite database file path.
func DBPath() string {
	return filepath.Join(DataDir(), "usageref.db")
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings creates a default settings file if it doesn't exist.
func EnsureSettings() error {
	path := SettingsPath()

	if _, err := os.Stat(path); err == nil {
		return nil // File exists
	}

	defaultSettings := `{
  "USAGEREF_WORKER_PORT": 38080,
  "USAGEREF_MAX_CONNS": 4,
  "USAGEREF_PAGE_SIZE": 20,
  "USAGEREF_LOG_LEVEL": "info"
}
`
	return os.WriteFile(path, []byte(defaultSettings), 0600)
}

// EnsureAll ensures all required directories and files exist.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		WorkerPort: DefaultWorkerPort,
		DBDSN:      DBPath(),
		MaxConns:   DefaultMaxConns,
		PageSize:   DefaultPageSize,
		LogLevel:   DefaultLogLevel,

		MaintenanceIntervalMinutes: DefaultMaintenanceIntervalMinutes,
	}
}

// Load loads configuration from the settings file, merging with defaults,
// then applies environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if err == nil {
		// Load settings into a map to preserve unknown fields
		var settings map[string]interface{}
		if err := json.Unmarshal(data, &settings); err == nil {
			applySettings(cfg, settings)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applySettings(cfg *Config, settings map[string]interface{}) {
	if v, ok := settings["USAGEREF_WORKER_PORT"].(float64); ok && v > 0 {
		cfg.WorkerPort = int(v)
	}
	if v, ok := settings["USAGEREF_DB_DSN"].(string); ok && v != "" {
		cfg.DBDSN = v
	}
	if v, ok := settings["USAGEREF_MAX_CONNS"].(float64); ok && v > 0 {
		cfg.MaxConns = int(v)
	}
	if v, ok := settings["USAGEREF_PAGE_SIZE"].(float64); ok && v > 0 {
		cfg.PageSize = int(v)
	}
	if v, ok := settings["USAGEREF_LOG_LEVEL"].(string); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := settings["USAGEREF_MAINTENANCE_INTERVAL_MINUTES"].(float64); ok && v >= 0 {
		cfg.MaintenanceIntervalMinutes = int(v)
	}
	if v, ok := settings["USAGEREF_LOG_SQL"].(bool); ok {
		cfg.LogSQL = v
	}
}

func applyEnv(cfg *Config) {
	if port := os.Getenv(EnvWorkerPort); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.WorkerPort = p
		}
	}
	if dsn := os.Getenv(EnvDBDSN); dsn != "" {
		cfg.DBDSN = dsn
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
}

// ZerologLevel parses LogLevel, falling back to info.
func (c *Config) ZerologLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	configOnce.Do(func() {
		var err error
		globalConfig, err = Load()
		if err != nil {
			globalConfig = Default()
		}
	})

	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
