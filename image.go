package flatfat

import (
	"io"
	"os"

	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/layout"
	"github.com/dargueta/flatfat/storage"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// closeAfterFailure closes `store` after `cause` made it unusable. If closing
// fails too, both errors are reported under the errno of `cause`.
func closeAfterFailure(store storage.BlockStorage, cause error) error {
	closeErr := store.Close()
	if closeErr == nil {
		return cause
	}
	return errors.New(errors.ErrnoOf(cause)).Wrap(multierror.Append(cause, closeErr))
}

// CreateImage formats the image file at `path`, creating it if it doesn't
// exist. An existing file must be at least as large as the geometry requires.
func CreateImage(fs afero.Fs, path string, geometry layout.Geometry, opts ...Option) (*Session, error) {
	if err := geometry.Validate(); err != nil {
		return nil, err
	}

	options := collectOptions(opts)
	store := storage.NewFileStorage(fs, geometry, options.logger)
	if err := store.Initialize(path); err != nil {
		return nil, err
	}

	session, err := Format(store, geometry, opts...)
	if err != nil {
		return nil, closeAfterFailure(store, err)
	}
	return session, nil
}

// ReadGeometry reads the geometry from the superblock of the image file at
// `path` without opening a session.
func ReadGeometry(fs afero.Fs, path string) (layout.Geometry, error) {
	file, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return layout.Geometry{}, errors.ErrNotFound.Wrap(err)
		}
		return layout.Geometry{}, errors.ErrIOFailed.Wrap(err)
	}
	defer file.Close()

	header := make([]byte, superblockSize)
	_, err = io.ReadFull(file, header)
	if err != nil {
		return layout.Geometry{}, errors.ErrInvalidFileSystem.Wrap(err)
	}
	return decodeSuperblock(header)
}

// OpenImage opens the existing image file at `path`. The geometry is taken from
// the image's superblock.
func OpenImage(fs afero.Fs, path string, opts ...Option) (*Session, error) {
	geometry, err := ReadGeometry(fs, path)
	if err != nil {
		return nil, err
	}

	options := collectOptions(opts)
	store := storage.NewFileStorage(fs, geometry, options.logger)
	if err = store.Initialize(path); err != nil {
		return nil, err
	}

	session, err := Open(store, opts...)
	if err != nil {
		return nil, closeAfterFailure(store, err)
	}
	return session, nil
}
