// Package config loads application configuration from struct defaults, an
// optional YAML file and BIKESHARE_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"bikeshare-analytics/internal/validation"
	"bikeshare-analytics/pkg/database"
)

// EnvPrefix prefixes every environment override, e.g. BIKESHARE_SERVER_PORT
const EnvPrefix = "BIKESHARE_"

// ConfigPathEnvVar overrides the config file location
const ConfigPathEnvVar = "BIKESHARE_CONFIG"

// DefaultConfigPaths are searched in order when ConfigPathEnvVar is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/bikeshare-analytics/config.yaml",
}

// Dataset sources
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config is the complete application configuration
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database" validate:"-"`
	Logging  LoggingConfig  `koanf:"logging"`
	Dataset  DatasetConfig  `koanf:"dataset"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port" validate:"gt=0,lte=65535"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"gt=0"`
}

// DatabaseConfig configures the PostgreSQL connection
type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"gt=0,lte=65535"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password"`
	Database        string        `koanf:"database" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// DatasetConfig selects and describes the rental record source
type DatasetConfig struct {
	Source  string `koanf:"source" validate:"oneof=csv postgres"`
	CSVPath string `koanf:"csv_path" validate:"required_if=Source csv"`
	// TemperatureScale converts the normalized temperature ratio to °C
	TemperatureScale float64 `koanf:"temperature_scale" validate:"gt=0"`
	// SkipInvalidRows drops rows that fail validation instead of failing the load
	SkipInvalidRows bool          `koanf:"skip_invalid_rows"`
	Columns         ColumnsConfig `koanf:"columns"`
}

// ColumnsConfig names the CSV columns. The primary weather columns hold the
// daily readings; fallbacks are read only when a primary column is absent.
type ColumnsConfig struct {
	Date                string `koanf:"date" validate:"required"`
	Hour                string `koanf:"hour" validate:"required"`
	WorkingDay          string `koanf:"working_day" validate:"required"`
	Temperature         string `koanf:"temperature" validate:"required"`
	TemperatureFallback string `koanf:"temperature_fallback"`
	WindSpeed           string `koanf:"wind_speed" validate:"required"`
	WindSpeedFallback   string `koanf:"wind_speed_fallback"`
	Casual              string `koanf:"casual" validate:"required"`
	Registered          string `koanf:"registered" validate:"required"`
	Total               string `koanf:"total" validate:"required"`
}

// Default returns the configuration used before any file or env override
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "bikeshare",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Dataset: DatasetConfig{
			Source:           SourceCSV,
			CSVPath:          "main_data.csv",
			TemperatureScale: 41.0,
			Columns: ColumnsConfig{
				Date:                "dteday",
				Hour:                "hr",
				WorkingDay:          "workingday",
				Temperature:         "temp_day",
				TemperatureFallback: "temp",
				WindSpeed:           "windspeed_day",
				WindSpeedFallback:   "windspeed",
				Casual:              "casual",
				Registered:          "registered",
				Total:               "cnt",
			},
		},
	}
}

// LoadConfig layers defaults, the config file (if any) and environment variables
func LoadConfig() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is LoadConfig with an explicit config file path
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// envKey maps BIKESHARE_SERVER_READ_TIMEOUT to server.read_timeout and
// BIKESHARE_DATASET_COLUMNS_WIND_SPEED to dataset.columns.wind_speed
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

	if rest, ok := strings.CutPrefix(key, "dataset_columns_"); ok {
		return "dataset.columns." + rest
	}

	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// Validate checks the settings the server needs. Database settings are only
// checked when the dataset is read from PostgreSQL.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Dataset.Source == SourcePostgres {
		return c.ValidateDatabase()
	}

	return nil
}

// ValidateDatabase checks only the database section
func (c *Config) ValidateDatabase() error {
	if err := validation.Struct(&c.Database); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}
	return nil
}

// Connection converts the section into pkg/database settings
func (c DatabaseConfig) Connection() *database.Config {
	return &database.Config{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Database,
		SSLMode:         c.SSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
	}
}
