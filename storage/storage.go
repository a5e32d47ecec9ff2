// Package storage provides the block storage the file system sits on: a linear
// array of fixed-size clusters that can be read and written whole.
//
// Everything here is write-through. There is no caching and no durability
// guarantee beyond what the underlying file or stream gives.
package storage

import (
	"fmt"

	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/layout"
)

// BlockStorage is the interface the file system uses to access the disk image.
//
// Generated mock using mockgen:
//
//	mockgen -source=storage.go -destination=mock_storage.go -package storage
type BlockStorage interface {
	// ReadCluster returns a fresh buffer holding exactly ClusterSize() bytes.
	ReadCluster(cluster layout.ClusterID) ([]byte, error)
	// WriteCluster writes `data`, which must be exactly ClusterSize() bytes.
	WriteCluster(cluster layout.ClusterID, data []byte) error
	// ClusterSize gives the size of a cluster, in bytes.
	ClusterSize() uint
	// TotalClusters gives the number of clusters in the image.
	TotalClusters() uint
	// Close releases the underlying resources. The storage must not be used
	// afterwards.
	Close() error
}

// checkIOBounds verifies that a whole cluster of `dataLength` bytes can be
// transferred to or from `cluster`.
func checkIOBounds(
	cluster layout.ClusterID, dataLength, clusterSize, totalClusters uint,
) error {
	if cluster < 0 || uint(cluster) >= totalClusters {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"invalid cluster ID %d: not in range [0, %d)",
				cluster,
				totalClusters))
	}

	if dataLength != clusterSize {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"data must be exactly one cluster (%d B), got %d",
				clusterSize,
				dataLength))
	}
	return nil
}

// clusterOffset converts a cluster ID into a byte offset into the image.
func clusterOffset(cluster layout.ClusterID, clusterSize uint) int64 {
	return int64(cluster) * int64(clusterSize)
}
