// Package testing holds helpers shared by the tests of every package in this
// module. Import it under an alias, e.g. `flatfattest`.
package testing

import (
	"crypto/rand"
	"testing"

	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/fat"
	"github.com/dargueta/flatfat/layout"
	"github.com/dargueta/flatfat/storage"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// SmallGeometry is a geometry with four directory entries per cluster, so that
// directory growth can be triggered with a handful of files.
//
//	cluster 0      superblock
//	clusters 1-2   FAT
//	cluster 3      root directory
//	clusters 4-63  data
var SmallGeometry = layout.Geometry{
	Slug:             "small",
	Name:             "Test geometry with 128-byte clusters",
	ClusterSize:      128,
	TotalClusters:    64,
	FATStartCluster:  1,
	FATClusters:      2,
	RootDirCluster:   3,
	FirstDataCluster: 4,
}

// CreateRandomImage creates an image with the given number of clusters and
// bytes per cluster, filled with random bytes. It is guaranteed to either
// return a valid slice or fail the test and abort.
func CreateRandomImage(clusterSize, totalClusters uint, t *testing.T) []byte {
	backingData := make([]byte, clusterSize*totalClusters)

	_, err := rand.Read(backingData)
	require.NoErrorf(
		t,
		err,
		"failed to initialize %d clusters of size %d with random bytes",
		totalClusters,
		clusterSize,
	)
	return backingData
}

// NewMemoryStorage creates zeroed in-memory storage for `geometry`. The storage
// is closed when the test finishes.
func NewMemoryStorage(geometry layout.Geometry, t *testing.T) *storage.StreamStorage {
	store := storage.NewMemoryStorage(geometry)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// NewStorageOverImage creates storage for `geometry` on top of `image`, which
// must be exactly the size of the geometry's image. Writes go directly to
// `image`, so tests can inspect the raw bytes.
func NewStorageOverImage(image []byte, geometry layout.Geometry, t *testing.T) *storage.StreamStorage {
	require.EqualValues(t, geometry.ImageSize(), len(image), "image size is wrong")

	store := storage.NewStreamStorage(bytesextra.NewReadWriteSeeker(image), geometry)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// NewFormattedTable creates in-memory storage and a freshly formatted FAT on
// it. The FAT has already been flushed.
func NewFormattedTable(geometry layout.Geometry, t *testing.T) (*fat.Table, *storage.StreamStorage) {
	store := NewMemoryStorage(geometry, t)
	table := fat.New(store, geometry, nil)
	table.Format()
	require.NoError(t, table.Flush(), "failed to flush freshly formatted FAT")
	return table, store
}

// RequireErrno fails the test immediately if `err` doesn't carry `expected`.
func RequireErrno(t *testing.T, err error, expected errors.Errno) {
	require.Error(t, err, "expected an error with errno %s", expected)
	require.Equalf(
		t,
		expected,
		errors.ErrnoOf(err),
		"wrong errno for error: %s",
		err.Error())
}

// RequireChain fails the test immediately if the chain beginning at `start`
// isn't exactly `expected`.
func RequireChain(t *testing.T, table *fat.Table, start layout.ClusterID, expected ...layout.ClusterID) {
	chain, err := table.FollowChain(start)
	require.NoErrorf(t, err, "failed to follow chain from %d", start)
	require.Equalf(t, expected, chain, "chain from %d is wrong", start)
}
