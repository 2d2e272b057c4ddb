package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "AlreadyInitialized", ErrCodeAlreadyInitialized.String())
	assert.Equal(t, "TableExists", ErrCodeTableExists.String())
	assert.Equal(t, "Unknown(99)", ErrorCode(99).String())
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("initialize: %w", NewAlreadyInitializedError("/ordo/app"))

	assert.True(t, stderrors.Is(err, ErrAlreadyInitialized))
	assert.False(t, stderrors.Is(err, ErrTableExists))
	assert.True(t, IsAlreadyInitialized(err))
	assert.Equal(t, ErrCodeAlreadyInitialized, CodeOf(err))
}

func TestOperationalKind(t *testing.T) {
	active := NewActiveInstanceError("/ordo/app")
	unavailable := NewUnavailableError("check leader", stderrors.New("connection refused"))

	assert.True(t, IsOperational(active))
	assert.True(t, IsOperational(unavailable))
	assert.False(t, IsOperational(NewTableExistsError("t")))
	assert.False(t, IsOperational(stderrors.New("plain")))

	assert.Contains(t, active.Error(), "stop the oracle first")
	assert.Contains(t, unavailable.Error(), "connection refused")
	assert.NotEqual(t, active.Error(), unavailable.Error())
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("dial tcp: timeout")
	err := NewUnavailableError("connect", cause)
	assert.ErrorIs(t, err, cause)
}

func TestErrorMessage(t *testing.T) {
	err := NewInvalidConfigurationError("coordination.connect", "missing chroot")
	assert.Equal(t, "missing chroot (coordination.connect)", err.Error())
}
