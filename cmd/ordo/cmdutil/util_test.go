package cmdutil

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/marmos91/ordo/internal/cli/output"
	instanceerrors "github.com/marmos91/ordo/pkg/instance/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", errors.New("boom"), ExitError},
		{"invalid configuration", instanceerrors.NewInvalidConfigurationError("table.name", "bad"), ExitInvalid},
		{"already initialized", instanceerrors.NewAlreadyInitializedError("/ordo/app"), ExitConflict},
		{"table exists", instanceerrors.NewTableExistsError("t"), ExitConflict},
		{"active instance", instanceerrors.NewActiveInstanceError("/ordo/app"), ExitOperational},
		{"wrapped unavailable", fmt.Errorf("status: %w", instanceerrors.NewUnavailableError("connect", errors.New("refused"))), ExitOperational},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewPrinter(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Format() != output.FormatJSON {
		t.Errorf("format = %s, want json", p.Format())
	}

	if _, err := NewPrinter(&buf, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestConfirmWithForce(t *testing.T) {
	called := false
	err := Confirm("Remove?", "/ordo/app", true, func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("fn was not called with force")
	}
}

func TestBoolToYesNo(t *testing.T) {
	if BoolToYesNo(true) != "yes" || BoolToYesNo(false) != "no" {
		t.Error("unexpected BoolToYesNo output")
	}
}

func TestEmptyOr(t *testing.T) {
	if EmptyOr("", "-") != "-" || EmptyOr("x", "-") != "x" {
		t.Error("unexpected EmptyOr output")
	}
}
