package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/ordo/internal/telemetry"
	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
	"github.com/marmos91/ordo/pkg/table"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg with the struct tags and the cross-field rules that
// tags cannot express. Failures are InvalidConfiguration errors.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed '%s' validation (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return instanceerrors.NewInvalidConfigurationError(verrs[0].Namespace(), strings.Join(msgs, "; "))
		}
		return err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return instanceerrors.NewInvalidConfigurationError("telemetry.endpoint", "telemetry is enabled but no endpoint is set")
	}
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return instanceerrors.NewInvalidConfigurationError("telemetry.profiling.endpoint", "profiling is enabled but no endpoint is set")
	}

	valid := telemetry.ValidProfileTypes()
	for _, pt := range cfg.Telemetry.Profiling.ProfileTypes {
		if !slices.Contains(valid, pt) {
			return instanceerrors.NewInvalidConfigurationError("telemetry.profiling.profile_types",
				fmt.Sprintf("unknown profile type %q (valid: %s)", pt, strings.Join(valid, ", ")))
		}
	}

	if _, err := cfg.Coordination.Address(); err != nil {
		return err
	}

	return validateTable(&cfg.Table)
}

func validateTable(cfg *TableConfig) error {
	if err := table.ValidateName(cfg.Name); err != nil {
		return instanceerrors.NewInvalidConfigurationError("table.name", err.Error())
	}

	switch cfg.Backend {
	case TableBadger, TableLevelDB, TableSQLite:
		if cfg.Path == "" {
			return instanceerrors.NewInvalidConfigurationError("table.path", cfg.Backend+" table store requires a path")
		}
	case TablePostgres:
		pg := cfg.Postgres
		var missing []string
		if pg.Host == "" {
			missing = append(missing, "host")
		}
		if pg.Database == "" {
			missing = append(missing, "database")
		}
		if pg.User == "" {
			missing = append(missing, "user")
		}
		if len(missing) > 0 {
			return instanceerrors.NewInvalidConfigurationError("table.postgres", "postgres table store requires "+strings.Join(missing, ", "))
		}
	}
	return nil
}
