package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/ordo/internal/bytesize"
)

// DefaultApplication is the application name used when none is configured.
const DefaultApplication = "default"

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit values
// are preserved.
func ApplyDefaults(cfg *Config) {
	if cfg.Application.Name == "" {
		cfg.Application.Name = DefaultApplication
	}
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyCoordinationDefaults(&cfg.Coordination, cfg.Application.Name)
	applyTableDefaults(&cfg.Table, cfg.Application.Name)
	applyOracleDefaults(&cfg.Oracle)
	applyAPIDefaults(&cfg.API)
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyCoordinationDefaults(cfg *CoordinationConfig, app string) {
	if cfg.Backend == "" {
		cfg.Backend = CoordinationEtcd
	}
	if cfg.Connect == "" {
		cfg.Connect = "localhost/ordo/" + app
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 10 * time.Second
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
}

func applyTableDefaults(cfg *TableConfig, app string) {
	if cfg.Backend == "" {
		cfg.Backend = TableBadger
	}
	if cfg.Name == "" {
		cfg.Name = app
	}
	if cfg.Path == "" {
		cfg.Path = defaultTablePath(cfg.Backend)
	}
	if cfg.Backend == TablePostgres {
		if cfg.Postgres.Port == 0 {
			cfg.Postgres.Port = 5432
		}
		if cfg.Postgres.SSLMode == "" {
			cfg.Postgres.SSLMode = "disable"
		}
		if cfg.Postgres.MaxOpenConns == 0 {
			cfg.Postgres.MaxOpenConns = 10
		}
		if cfg.Postgres.MaxIdleConns == 0 {
			cfg.Postgres.MaxIdleConns = 2
		}
	}
}

// defaultTablePath returns a per-backend location under the user data dir.
// Memory and postgres backends have no path.
func defaultTablePath(backend string) string {
	base := filepath.Join(os.TempDir(), "ordo")
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		base = filepath.Join(dataHome, "ordo")
	}

	switch backend {
	case TableBadger, TableLevelDB:
		return filepath.Join(base, backend)
	case TableSQLite:
		return filepath.Join(base, "ordo.db")
	default:
		return ""
	}
}

func applyOracleDefaults(cfg *OracleConfig) {
	if cfg.Instances == 0 {
		cfg.Instances = 1
	}
	if cfg.MaxMemory == 0 {
		cfg.MaxMemory = 512 * bytesize.MiB
	}
	if cfg.ConfDir == "" {
		cfg.ConfDir = getConfigDir()
	}
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.JWT.TokenTTL == 0 {
		cfg.JWT.TokenTTL = time.Hour
	}
}

// GetDefaultConfig returns a Config with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
