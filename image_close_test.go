package flatfat

import (
	"testing"

	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/storage"
	flatfattest "github.com/dargueta/flatfat/testing"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func TestCloseAfterFailure__CloseSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storage.NewMockBlockStorage(ctrl)
	store.EXPECT().Close().Return(nil)

	cause := errors.ErrFileSystemCorrupted.WithMessage("bad FAT")
	assert.Equal(t, cause, closeAfterFailure(store, cause))
}

func TestCloseAfterFailure__CloseFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storage.NewMockBlockStorage(ctrl)
	store.EXPECT().Close().Return(errors.ErrIOFailed.WithMessage("sync failed"))

	err := closeAfterFailure(store, errors.ErrFileSystemCorrupted.WithMessage("bad FAT"))
	flatfattest.RequireErrno(t, err, errors.EUCLEAN)
	assert.Contains(t, err.Error(), "bad FAT")
	assert.Contains(t, err.Error(), "sync failed")
	assert.ErrorIs(t, err, errors.ErrIOFailed)
}
