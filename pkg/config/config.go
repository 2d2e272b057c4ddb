package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/marmos91/ordo/internal/bytesize"
	"github.com/marmos91/ordo/pkg/instance/chroot"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the ordo configuration of one instance.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (ORDO_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Application identifies the instance
	Application ApplicationConfig `mapstructure:"application" yaml:"application"`

	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics contains Prometheus metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Coordination selects the coordination service and the instance chroot
	Coordination CoordinationConfig `mapstructure:"coordination" yaml:"coordination"`

	// Table selects the table store and the backing table
	Table TableConfig `mapstructure:"table" yaml:"table"`

	// Oracle describes the timestamp oracle deployment
	Oracle OracleConfig `mapstructure:"oracle" yaml:"oracle"`

	// API contains admin API server configuration
	API APIConfig `mapstructure:"api" yaml:"api"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout" jsonschema:"oneof_type=string;integer"`
}

// ApplicationConfig identifies the instance.
type ApplicationConfig struct {
	// Name is the application name recorded at initialize and used as the
	// oracle application name
	Name string `mapstructure:"name" validate:"required" yaml:"name"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use a non-TLS connection
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling of the serve
// command.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures Prometheus metrics. When Enabled is false no
// metrics are collected.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port of the standalone metrics endpoint. The admin
	// API also serves /metrics on its own port.
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Coordination backends.
const (
	CoordinationEtcd      = "etcd"
	CoordinationZookeeper = "zookeeper"
	CoordinationMemory    = "memory"
)

// CoordinationConfig selects the coordination service.
type CoordinationConfig struct {
	// Backend is one of etcd, zookeeper or memory
	Backend string `mapstructure:"backend" validate:"required,oneof=etcd zookeeper memory" yaml:"backend" jsonschema:"enum=etcd,enum=zookeeper,enum=memory"`

	// Connect is the connection string: host[:port][,host[:port]...]/root.
	// The root (chroot) is mandatory and owned by this instance alone.
	Connect string `mapstructure:"connect" validate:"required" yaml:"connect"`

	// SessionTimeout bounds how long ephemeral nodes outlive a lost client.
	// Default: 10s
	SessionTimeout time.Duration `mapstructure:"session_timeout" yaml:"session_timeout" jsonschema:"oneof_type=string;integer"`

	// DialTimeout bounds connection establishment.
	// Default: 5s
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout" jsonschema:"oneof_type=string;integer"`

	// Username and Password authenticate against etcd
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
}

// Address parses Connect.
func (c CoordinationConfig) Address() (chroot.Address, error) {
	return chroot.Parse(c.Connect)
}

// Table backends.
const (
	TableBadger   = "badger"
	TableLevelDB  = "leveldb"
	TableSQLite   = "sqlite"
	TablePostgres = "postgres"
	TableMemory   = "memory"
)

// TableConfig selects the table store and names the backing table.
type TableConfig struct {
	// Backend is one of badger, leveldb, sqlite, postgres or memory
	Backend string `mapstructure:"backend" validate:"required,oneof=badger leveldb sqlite postgres memory" yaml:"backend" jsonschema:"enum=badger,enum=leveldb,enum=sqlite,enum=postgres,enum=memory"`

	// Name is the backing table name
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// Path is the badger/leveldb directory or the SQLite database file
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// Postgres holds the PostgreSQL connection when Backend is postgres
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres,omitempty"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host         string `mapstructure:"host" yaml:"host,omitempty"`
	Port         int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port,omitempty"`
	Database     string `mapstructure:"database" yaml:"database,omitempty"`
	User         string `mapstructure:"user" yaml:"user,omitempty"`
	Password     string `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode      string `mapstructure:"sslmode" validate:"omitempty,oneof=disable require verify-ca verify-full" yaml:"sslmode,omitempty"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns,omitempty"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns,omitempty"`
}

// OracleConfig describes the timestamp oracle deployment.
type OracleConfig struct {
	// Instances is the number of oracle replicas (one leads, the others
	// stand by)
	Instances int `mapstructure:"instances" validate:"min=1" yaml:"instances"`

	// MaxMemory is the memory envelope of each replica
	// Supports human-readable formats: "512Mi", "1GB"
	MaxMemory bytesize.ByteSize `mapstructure:"max_memory" validate:"required" yaml:"max_memory" jsonschema:"oneof_type=string;integer"`

	// ConfDir holds the files shipped to every replica
	ConfDir string `mapstructure:"conf_dir" yaml:"conf_dir"`

	// ConfigFile is the primary configuration file shipped to every
	// replica. Empty means the loaded configuration file.
	ConfigFile string `mapstructure:"config_file" yaml:"config_file,omitempty"`
}

// APIConfig configures the admin HTTP API.
type APIConfig struct {
	// Port is the HTTP listen port
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" jsonschema:"oneof_type=string;integer"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" jsonschema:"oneof_type=string;integer"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" jsonschema:"oneof_type=string;integer"`

	// JWT signs the bearer tokens required by mutating routes
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`
}

// JWTConfig holds admin token settings.
type JWTConfig struct {
	// Secret is the HMAC signing key. Override with ORDO_API_JWT_SECRET.
	Secret string `mapstructure:"secret" validate:"omitempty,min=32" yaml:"secret"`

	// TokenTTL is the lifetime of issued tokens
	// Default: 1h
	TokenTTL time.Duration `mapstructure:"token_ttl" yaml:"token_ttl" jsonschema:"oneof_type=string;integer"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (ORDO_*)
//  2. Configuration file
//  3. Default values
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)
	if cfg.Oracle.ConfigFile == "" {
		cfg.Oracle.ConfigFile = v.ConfigFileUsed()
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration and explains how to create one when the
// file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  ordo config init\n\n"+
				"Or specify a custom config file:\n"+
				"  ordo <command> --config /path/to/ordo.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  ordo config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file carries the JWT secret and database passwords.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	// Example: ORDO_COORDINATION_CONNECT=zk1:2181/ordo/app
	v.SetEnvPrefix("ORDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("ordo")
		v.SetConfigType("yaml")
	}
}

// readConfigFile returns whether a configuration file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// byteSizeDecodeHook converts strings like "512Mi" or "1GB" and plain
// numbers to bytesize.ByteSize.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" to time.Duration. Raw
// numbers are nanoseconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/ordo, ~/.config/ordo, or "." as a
// last resort.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ordo")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "ordo")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "ordo.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
