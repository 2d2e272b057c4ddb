package config

import (
	"fmt"
	"time"

	"github.com/marmos91/ordo/internal/bytesize"
	"gopkg.in/yaml.v3"
)

// SharedConfig is the part of the configuration written to the instance's
// config node at initialize, so oracle replicas and clients read the same
// settings as the administrator who created the instance.
type SharedConfig struct {
	Application    string            `yaml:"application"`
	Table          string            `yaml:"table"`
	TableBackend   string            `yaml:"table_backend"`
	SessionTimeout time.Duration     `yaml:"session_timeout"`
	OracleReplicas int               `yaml:"oracle_replicas"`
	OracleMemory   bytesize.ByteSize `yaml:"oracle_max_memory"`
}

// Shared extracts the shared part of cfg.
func (c *Config) Shared() SharedConfig {
	return SharedConfig{
		Application:    c.Application.Name,
		Table:          c.Table.Name,
		TableBackend:   c.Table.Backend,
		SessionTimeout: c.Coordination.SessionTimeout,
		OracleReplicas: c.Oracle.Instances,
		OracleMemory:   c.Oracle.MaxMemory,
	}
}

// MarshalShared renders the shared part of cfg as YAML.
func (c *Config) MarshalShared() ([]byte, error) {
	data, err := yaml.Marshal(c.Shared())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shared config: %w", err)
	}
	return data, nil
}

// UnmarshalShared decodes a shared configuration read from an instance.
func UnmarshalShared(data []byte) (*SharedConfig, error) {
	var sc SharedConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to decode shared config: %w", err)
	}
	return &sc, nil
}
