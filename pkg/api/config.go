package api

import (
	"time"

	"github.com/marmos91/ordo/pkg/api/auth"
	"github.com/marmos91/ordo/pkg/config"
)

// withDefaults fills zero values so a Server built directly (as in tests)
// behaves like one built from loaded configuration.
func withDefaults(c config.APIConfig) config.APIConfig {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.JWT.TokenTTL == 0 {
		c.JWT.TokenTTL = time.Hour
	}
	return c
}

// NewJWTService builds the token service of cfg.
func NewJWTService(cfg config.APIConfig) (*auth.JWTService, error) {
	cfg = withDefaults(cfg)
	return auth.NewJWTService(auth.JWTConfig{
		Secret:        cfg.JWT.Secret,
		TokenDuration: cfg.JWT.TokenTTL,
	})
}
