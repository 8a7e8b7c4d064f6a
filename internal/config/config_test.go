package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, 8080)
	}
	if cfg.Dataset.Source != SourceCSV {
		t.Errorf("Dataset.Source = %v, want %v", cfg.Dataset.Source, SourceCSV)
	}
	if cfg.Dataset.TemperatureScale != 41.0 {
		t.Errorf("Dataset.TemperatureScale = %v, want %v", cfg.Dataset.TemperatureScale, 41.0)
	}
	columnTests := []struct {
		name, got, want string
	}{
		{"Temperature", cfg.Dataset.Columns.Temperature, "temp_day"},
		{"TemperatureFallback", cfg.Dataset.Columns.TemperatureFallback, "temp"},
		{"WindSpeed", cfg.Dataset.Columns.WindSpeed, "windspeed_day"},
		{"WindSpeedFallback", cfg.Dataset.Columns.WindSpeedFallback, "windspeed"},
	}
	for _, ct := range columnTests {
		if ct.got != ct.want {
			t.Errorf("Columns.%s = %v, want %v", ct.name, ct.got, ct.want)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFile_YAMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlDoc := `
server:
  port: 9090
  read_timeout: 3s
dataset:
  source: postgres
  columns:
    temperature: atemp
database:
  host: db.internal
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("BIKESHARE_SERVER_PORT", "9191")
	t.Setenv("BIKESHARE_LOGGING_LEVEL", "debug")
	t.Setenv("BIKESHARE_DATASET_COLUMNS_TOTAL", "count")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %v, want %v (env wins over file)", cfg.Server.Port, 9191)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 3*time.Second)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want %v", cfg.Logging.Level, "debug")
	}
	if cfg.Dataset.Columns.Temperature != "atemp" {
		t.Errorf("Columns.Temperature = %v, want %v", cfg.Dataset.Columns.Temperature, "atemp")
	}
	if cfg.Dataset.Columns.Total != "count" {
		t.Errorf("Columns.Total = %v, want %v", cfg.Dataset.Columns.Total, "count")
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %v, want %v", cfg.Database.Host, "db.internal")
	}
	if cfg.Dataset.Columns.Hour != "hr" {
		t.Errorf("Columns.Hour = %v, want default %v", cfg.Dataset.Columns.Hour, "hr")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "unknown source", mutate: func(c *Config) { c.Dataset.Source = "parquet" }, wantErr: true},
		{name: "csv without path", mutate: func(c *Config) { c.Dataset.CSVPath = "" }, wantErr: true},
		{name: "zero scale", mutate: func(c *Config) { c.Dataset.TemperatureScale = 0 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "postgres without host", mutate: func(c *Config) {
			c.Dataset.Source = SourcePostgres
			c.Database.Host = ""
		}, wantErr: true},
		{name: "csv ignores database", mutate: func(c *Config) { c.Database.Host = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"BIKESHARE_SERVER_PORT":                "server.port",
		"BIKESHARE_SERVER_READ_TIMEOUT":        "server.read_timeout",
		"BIKESHARE_DATASET_CSV_PATH":           "dataset.csv_path",
		"BIKESHARE_DATASET_COLUMNS_WIND_SPEED": "dataset.columns.wind_speed",
		"BIKESHARE_DATABASE_SSL_MODE":          "database.ssl_mode",
	}

	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDatabaseConfig_Connection(t *testing.T) {
	cfg := Default()
	cfg.Database.Host = "db.internal"

	conn := cfg.Database.Connection()
	if conn.Host != "db.internal" || conn.Port != 5432 || conn.MaxOpenConns != 10 {
		t.Errorf("Connection() = %+v", conn)
	}
	if conn.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want %v", conn.ConnMaxLifetime, 30*time.Minute)
	}
}
