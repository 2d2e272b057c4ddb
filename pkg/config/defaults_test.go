package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/ordo/internal/bytesize"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Coordination(t *testing.T) {
	cfg := &Config{Application: ApplicationConfig{Name: "ledger"}}
	ApplyDefaults(cfg)

	if cfg.Coordination.Backend != CoordinationEtcd {
		t.Errorf("Expected default backend etcd, got %q", cfg.Coordination.Backend)
	}
	if cfg.Coordination.Connect != "localhost/ordo/ledger" {
		t.Errorf("Expected connect derived from application, got %q", cfg.Coordination.Connect)
	}
	if cfg.Coordination.SessionTimeout != 10*time.Second {
		t.Errorf("Expected session timeout 10s, got %v", cfg.Coordination.SessionTimeout)
	}
}

func TestApplyDefaults_Table(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")

	tests := []struct {
		backend string
		path    string
	}{
		{TableBadger, filepath.Join("/data", "ordo", "badger")},
		{TableLevelDB, filepath.Join("/data", "ordo", "leveldb")},
		{TableSQLite, filepath.Join("/data", "ordo", "ordo.db")},
		{TableMemory, ""},
		{TablePostgres, ""},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &Config{Table: TableConfig{Backend: tt.backend}}
			ApplyDefaults(cfg)

			if cfg.Table.Path != tt.path {
				t.Errorf("Expected path %q, got %q", tt.path, cfg.Table.Path)
			}
			if cfg.Table.Name != DefaultApplication {
				t.Errorf("Expected table name %q, got %q", DefaultApplication, cfg.Table.Name)
			}
		})
	}

	cfg := &Config{Table: TableConfig{Backend: TablePostgres}}
	ApplyDefaults(cfg)
	if cfg.Table.Postgres.Port != 5432 || cfg.Table.Postgres.SSLMode != "disable" {
		t.Errorf("Expected postgres defaults, got %+v", cfg.Table.Postgres)
	}
}

func TestApplyDefaults_Oracle(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Oracle.Instances != 1 {
		t.Errorf("Expected 1 oracle instance, got %d", cfg.Oracle.Instances)
	}
	if cfg.Oracle.MaxMemory != 512*bytesize.MiB {
		t.Errorf("Expected 512Mi, got %v", cfg.Oracle.MaxMemory)
	}
	if cfg.Oracle.ConfDir == "" {
		t.Error("Expected a default conf dir")
	}
}

func TestApplyDefaults_API(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if cfg.API.IdleTimeout != 60*time.Second {
		t.Errorf("Expected default idle timeout 60s, got %v", cfg.API.IdleTimeout)
	}
	if cfg.API.JWT.TokenTTL != time.Hour {
		t.Errorf("Expected default token TTL 1h, got %v", cfg.API.JWT.TokenTTL)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Oracle:  OracleConfig{Instances: 5, MaxMemory: bytesize.GiB},
		Metrics: MetricsConfig{Enabled: true, Port: 9191},
	}
	ApplyDefaults(cfg)

	if cfg.Oracle.Instances != 5 || cfg.Oracle.MaxMemory != bytesize.GiB {
		t.Errorf("Explicit oracle values overwritten: %+v", cfg.Oracle)
	}
	if cfg.Metrics.Port != 9191 {
		t.Errorf("Explicit metrics port overwritten: %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_MetricsPortOnlyWhenEnabled(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 0 {
		t.Errorf("Expected no metrics port when disabled, got %d", cfg.Metrics.Port)
	}

	cfg = &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected metrics port 9090, got %d", cfg.Metrics.Port)
	}
}
