// Package cmdutil provides shared utilities for ordo commands.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/marmos91/ordo/internal/cli/output"
	"github.com/marmos91/ordo/internal/cli/prompt"
	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/config"
	"github.com/marmos91/ordo/pkg/instance"
	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
	"github.com/marmos91/ordo/pkg/metrics"
)

// Version is recorded in the initialized marker. Set by the root command.
var Version = "dev"

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigFile string
	NoColor    bool
}

// Exit codes. Usage and configuration problems are distinguished from
// refusals by the environment so scripts can tell them apart.
const (
	ExitError       = 1
	ExitInvalid     = 2
	ExitOperational = 3
	ExitConflict    = 4
)

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	switch instanceerrors.CodeOf(err) {
	case instanceerrors.ErrCodeInvalidConfiguration:
		return ExitInvalid
	case instanceerrors.ErrCodeAlreadyInitialized, instanceerrors.ErrCodeTableExists:
		return ExitConflict
	case instanceerrors.ErrCodeActiveInstance, instanceerrors.ErrCodeUnavailable:
		return ExitOperational
	default:
		return ExitError
	}
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// LoadConfig loads the configuration named by --config and initializes the
// logger from it.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.MustLoad(Flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenAdmin connects to the backends of cfg. Metrics are recorded when the
// registry was initialized.
func OpenAdmin(ctx context.Context, cfg *config.Config) (*instance.Admin, error) {
	return instance.Open(ctx, cfg,
		instance.WithVersion(Version),
		instance.WithMetrics(metrics.NewAdminMetrics()))
}

// NewPrinter returns a printer on w for the given --output value.
func NewPrinter(w io.Writer, format string) (*output.Printer, error) {
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(w, f, !Flags.NoColor), nil
}

// Confirm runs fn after the user confirmed label, or immediately when force
// is set. Declining or aborting prints "Aborted." and returns nil.
func Confirm(label, confirmWord string, force bool, fn func() error) error {
	if !force {
		var (
			ok  bool
			err error
		)
		if confirmWord != "" {
			ok, err = prompt.ConfirmDanger(label, confirmWord)
		} else {
			ok, err = prompt.Confirm(label)
		}
		if errors.Is(err, prompt.ErrAborted) || (err == nil && !ok) {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}
		if err != nil {
			return err
		}
	}
	return fn()
}

// BoolToYesNo converts a boolean to "yes" or "no".
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EmptyOr returns value if not empty, otherwise fallback.
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
