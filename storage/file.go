package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/internal/logging"
	"github.com/dargueta/flatfat/layout"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// FileStorage implements [BlockStorage] on a disk image file. Files are opened
// through an [afero.Fs] so tests can run against an in-memory file system.
//
// A FileStorage must be initialized with [FileStorage.Initialize] before use.
type FileStorage struct {
	fs       afero.Fs
	geometry layout.Geometry
	file     afero.File
	path     string
	closed   bool
	logger   *slog.Logger
}

// NewFileStorage creates an uninitialized storage for an image with the given
// geometry. `logger` may be nil.
func NewFileStorage(fs afero.Fs, geometry layout.Geometry, logger *slog.Logger) *FileStorage {
	return &FileStorage{
		fs:       fs,
		geometry: geometry,
		logger:   logging.OrDiscard(logger),
	}
}

// Initialize opens the image at `path`. If the file doesn't exist or is empty,
// it's created and extended with zeroes to the full size of the image. A zeroed
// FAT region isn't a valid table, so a new image must be formatted before use.
// Existing images smaller than the geometry requires are rejected.
func (s *FileStorage) Initialize(path string) error {
	if s.file != nil || s.closed {
		return errors.ErrAlreadyInProgress.WithMessage(
			fmt.Sprintf("storage already initialized with %q", s.path))
	}

	file, err := s.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return errors.ErrIOFailed.Wrap(err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return errors.ErrIOFailed.Wrap(err)
	}

	imageSize := s.geometry.ImageSize()
	if info.Size() == 0 {
		err = file.Truncate(imageSize)
		if err != nil {
			file.Close()
			return errors.ErrIOFailed.Wrap(err)
		}
		s.logger.Info(
			"created image",
			slog.String("path", path),
			slog.Int64("size", imageSize))
	} else if info.Size() < imageSize {
		file.Close()
		return errors.ErrInvalidFileSystem.WithMessage(
			fmt.Sprintf(
				"image %q is %d bytes but the geometry needs %d",
				path,
				info.Size(),
				imageSize))
	}

	s.file = file
	s.path = path
	return nil
}

func (s *FileStorage) checkOpen() error {
	if s.file == nil {
		return errors.ErrFileDescriptorBadState.WithMessage("storage isn't initialized")
	}
	return nil
}

// Path returns the path the storage was initialized with.
func (s *FileStorage) Path() string {
	return s.path
}

// ReadCluster implements [BlockStorage].
func (s *FileStorage) ReadCluster(cluster layout.ClusterID) ([]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	err := checkIOBounds(
		cluster, s.geometry.ClusterSize, s.geometry.ClusterSize, s.geometry.TotalClusters)
	if err != nil {
		return nil, err
	}

	buffer := make([]byte, s.geometry.ClusterSize)
	nRead, err := s.file.ReadAt(buffer, clusterOffset(cluster, s.geometry.ClusterSize))
	if nRead < len(buffer) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.ErrIOFailed.Wrap(
			fmt.Errorf(
				"unexpected short read of cluster %d: wanted %d bytes, got %d: %w",
				cluster,
				len(buffer),
				nRead,
				err))
	}
	// ReadAt may report io.EOF along with a full buffer at the end of the file.
	return buffer, nil
}

// WriteCluster implements [BlockStorage].
func (s *FileStorage) WriteCluster(cluster layout.ClusterID, data []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	err := checkIOBounds(
		cluster, uint(len(data)), s.geometry.ClusterSize, s.geometry.TotalClusters)
	if err != nil {
		return err
	}

	_, err = s.file.WriteAt(data, clusterOffset(cluster, s.geometry.ClusterSize))
	if err != nil {
		return errors.ErrIOFailed.Wrap(
			fmt.Errorf("failed to write cluster %d: %w", cluster, err))
	}
	return nil
}

// ClusterSize implements [BlockStorage].
func (s *FileStorage) ClusterSize() uint {
	return s.geometry.ClusterSize
}

// TotalClusters implements [BlockStorage].
func (s *FileStorage) TotalClusters() uint {
	return s.geometry.TotalClusters
}

// Close syncs the image to its medium and closes it. Errors from both steps are
// reported together.
func (s *FileStorage) Close() error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	var result *multierror.Error
	if err := s.file.Sync(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.file.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	s.file = nil
	s.closed = true

	if err := result.ErrorOrNil(); err != nil {
		return errors.ErrIOFailed.Wrap(err)
	}
	return nil
}
