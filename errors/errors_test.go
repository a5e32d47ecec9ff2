package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/dargueta/flatfat/errors"
	"github.com/stretchr/testify/assert"
)

func TestDriverErrorWithMessage(t *testing.T) {
	newErr := errors.ErrNoSpaceOnDevice.WithMessage("asdfqwerty")
	assert.Equal(
		t, "No space left on device: asdfqwerty", newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, errors.ErrNoSpaceOnDevice)
	assert.Equal(t, errors.ENOSPC, newErr.Errno())
}

func TestDriverErrorWrap(t *testing.T) {
	originalErr := stderrors.New("original error")
	newErr := errors.ErrExists.Wrap(originalErr)
	expectedMessage := "File exists: original error"

	assert.EqualValues(t, expectedMessage, newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, originalErr, "original error not set as parent")
	assert.ErrorIs(t, newErr, errors.ErrExists, "driver error not set as parent")
}

func TestDriverErrorIsMatchesErrnoOnly(t *testing.T) {
	err := errors.NewWithMessage(errors.EUCLEAN, "cycle at cluster 7")
	assert.ErrorIs(t, err, errors.ErrFileSystemCorrupted)
	assert.NotErrorIs(t, err, errors.ErrNotFound)
}

func TestNewFromError(t *testing.T) {
	cause := stderrors.New("short read")
	err := errors.NewFromError(errors.EIO, cause)

	assert.Equal(t, "Input/output error: short read", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, errors.ErrIOFailed)
}

func TestErrnoOf(t *testing.T) {
	assert.Equal(t, errors.EOK, errors.ErrnoOf(nil))
	assert.Equal(t, errors.EIO, errors.ErrnoOf(stderrors.New("plain")))
	assert.Equal(t, errors.EDOM, errors.ErrnoOf(errors.ErrArgumentOutOfRange.WithMessage("x")))
}

func TestStrErrorUnknownCode(t *testing.T) {
	assert.Equal(t, "error 9999 not recognized.", errors.StrError(errors.Errno(9999)))
}

func TestStrErrorOnlyDefinedCodes(t *testing.T) {
	// Codes nothing in the module produces aren't defined.
	for _, code := range []errors.Errno{9, 16, 30, 34} {
		assert.Containsf(t, errors.StrError(code), "not recognized", "errno %d is defined", code)
	}
	assert.Equal(t, "Structure needs cleaning", errors.StrError(errors.EUCLEAN))
}
