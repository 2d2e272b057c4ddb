package config

import (
	"strings"
	"testing"

	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
	if !instanceerrors.IsInvalidConfiguration(err) {
		t.Errorf("Expected InvalidConfiguration, got: %v", err)
	}
}

func TestValidate_InvalidBackends(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Coordination.Backend = "consul"
	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for unknown coordination backend")
	}

	cfg = GetDefaultConfig()
	cfg.Table.Backend = "hbase"
	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for unknown table backend")
	}
}

func TestValidate_InvalidAPIPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.API.Port = 70000

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for port out of range")
	}
	if !strings.Contains(err.Error(), "max") {
		t.Errorf("Expected 'max' validation error, got: %v", err)
	}
}

func TestValidate_OracleInstances(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Oracle.Instances = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for zero oracle instances")
	}
	if !strings.Contains(err.Error(), "Instances") {
		t.Errorf("Expected error about Instances, got: %v", err)
	}
}

func TestValidate_ConnectString(t *testing.T) {
	tests := []struct {
		connect string
		valid   bool
	}{
		{"localhost/ordo/app", true},
		{"zk1:2181,zk2:2181/very/long/path", true},
		{"localhost", false},
		{"localhost/", false},
		{"localhost:9999", false},
		{"localhost:9999/", false},
		{"/ordo/app", false},
	}

	for _, tt := range tests {
		t.Run(tt.connect, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.Coordination.Connect = tt.connect

			err := Validate(cfg)
			if tt.valid && err != nil {
				t.Errorf("Expected %q to be valid, got: %v", tt.connect, err)
			}
			if !tt.valid && !instanceerrors.IsInvalidConfiguration(err) {
				t.Errorf("Expected InvalidConfiguration for %q, got: %v", tt.connect, err)
			}
		})
	}
}

func TestValidate_TableName(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Table.Name = "bad name"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for table name with a space")
	}
	if !strings.Contains(err.Error(), "table.name") {
		t.Errorf("Expected error about table.name, got: %v", err)
	}
}

func TestValidate_TablePathRequired(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Table.Backend = TableLevelDB
	cfg.Table.Path = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for leveldb without path")
	}

	cfg.Table.Backend = TableMemory
	if err := Validate(cfg); err != nil {
		t.Errorf("Memory backend needs no path, got: %v", err)
	}
}

func TestValidate_PostgresRequiresConnection(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Table.Backend = TablePostgres
	cfg.Table.Postgres.Host = "db"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for incomplete postgres config")
	}
	if !strings.Contains(err.Error(), "database") || !strings.Contains(err.Error(), "user") {
		t.Errorf("Expected missing database and user, got: %v", err)
	}
}

func TestValidate_TelemetryEnabledWithoutEndpoint(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for telemetry enabled without endpoint")
	}
	if !strings.Contains(err.Error(), "endpoint") {
		t.Errorf("Expected error about telemetry endpoint, got: %v", err)
	}
}

func TestValidate_TelemetrySampleRate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.SampleRate = 1.5

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for sample rate out of range")
	}
}

func TestValidate_ProfileTypes(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.Profiling.ProfileTypes = []string{"cpu", "mutex_count", "block_duration"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected known profile types to pass, got: %v", err)
	}

	cfg.Telemetry.Profiling.ProfileTypes = []string{"cpu", "heap"}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unknown profile type")
	}
	if !instanceerrors.IsInvalidConfiguration(err) {
		t.Errorf("Expected InvalidConfiguration, got: %v", err)
	}
	if !strings.Contains(err.Error(), "heap") {
		t.Errorf("Expected error to name the unknown type, got: %v", err)
	}
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.API.JWT.Secret = "short"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for short JWT secret")
	}
}

func TestValidate_LogLevelNormalization(t *testing.T) {
	testCases := []string{"info", "INFO", "debug", "DEBUG", "warn", "WARN", "error", "ERROR"}

	for _, level := range testCases {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level

		if err := Validate(cfg); err != nil {
			t.Errorf("Validation failed for level %q: %v", level, err)
		}
		if cfg.Logging.Level != level {
			t.Errorf("Expected level to remain %q after validation, got %q", level, cfg.Logging.Level)
		}
	}

	cfg := &Config{Logging: LoggingConfig{Level: "info"}}
	ApplyDefaults(cfg)
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected ApplyDefaults to normalize 'info' to 'INFO', got %q", cfg.Logging.Level)
	}
}
