package storage

import (
	"fmt"
	"io"

	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/layout"
	"github.com/xaionaro-go/bytesextra"
)

// StreamStorage implements [BlockStorage] on top of any [io.ReadWriteSeeker].
// The stream must already be at least `clusterSize * totalClusters` bytes long;
// StreamStorage never resizes it.
type StreamStorage struct {
	stream        io.ReadWriteSeeker
	clusterSize   uint
	totalClusters uint
	closed        bool
}

// NewStreamStorage wraps `stream` using the cluster size and count from
// `geometry`.
func NewStreamStorage(stream io.ReadWriteSeeker, geometry layout.Geometry) *StreamStorage {
	return &StreamStorage{
		stream:        stream,
		clusterSize:   geometry.ClusterSize,
		totalClusters: geometry.TotalClusters,
	}
}

// NewMemoryStorage creates a zero-filled in-memory image for `geometry`.
func NewMemoryStorage(geometry layout.Geometry) *StreamStorage {
	buffer := make([]byte, geometry.ImageSize())
	return NewStreamStorage(bytesextra.NewReadWriteSeeker(buffer), geometry)
}

// seekToCluster sets the stream pointer to the first byte of `cluster`.
func (s *StreamStorage) seekToCluster(cluster layout.ClusterID) error {
	_, err := s.stream.Seek(clusterOffset(cluster, s.clusterSize), io.SeekStart)
	if err != nil {
		return errors.ErrIOFailed.Wrap(err)
	}
	return nil
}

func (s *StreamStorage) checkOpen() error {
	if s.closed {
		return errors.ErrFileDescriptorBadState.WithMessage("storage is closed")
	}
	return nil
}

// ReadCluster implements [BlockStorage].
func (s *StreamStorage) ReadCluster(cluster layout.ClusterID) ([]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	err := checkIOBounds(cluster, s.clusterSize, s.clusterSize, s.totalClusters)
	if err != nil {
		return nil, err
	}

	err = s.seekToCluster(cluster)
	if err != nil {
		return nil, err
	}

	buffer := make([]byte, s.clusterSize)
	_, err = io.ReadFull(s.stream, buffer)
	if err != nil {
		return nil, errors.ErrIOFailed.Wrap(
			fmt.Errorf("failed to read cluster %d: %w", cluster, err))
	}
	return buffer, nil
}

// WriteCluster implements [BlockStorage].
func (s *StreamStorage) WriteCluster(cluster layout.ClusterID, data []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	err := checkIOBounds(cluster, uint(len(data)), s.clusterSize, s.totalClusters)
	if err != nil {
		return err
	}

	err = s.seekToCluster(cluster)
	if err != nil {
		return err
	}

	nWritten, err := s.stream.Write(data)
	if err != nil {
		return errors.ErrIOFailed.Wrap(
			fmt.Errorf("failed to write cluster %d: %w", cluster, err))
	} else if nWritten < len(data) {
		return errors.ErrIOFailed.WithMessage(
			fmt.Sprintf(
				"short write to cluster %d: wanted %d bytes, wrote %d",
				cluster,
				len(data),
				nWritten))
	}
	return nil
}

// ClusterSize implements [BlockStorage].
func (s *StreamStorage) ClusterSize() uint {
	return s.clusterSize
}

// TotalClusters implements [BlockStorage].
func (s *StreamStorage) TotalClusters() uint {
	return s.totalClusters
}

// Close implements [BlockStorage]. If the stream is also an [io.Closer] it's
// closed too.
func (s *StreamStorage) Close() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.closed = true

	if closer, ok := s.stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
