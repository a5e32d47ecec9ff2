// Package layout describes the geometry of a disk image: how big a cluster is,
// how many there are, and where the superblock, FAT region, root directory and
// data region live.
//
// The on-disk layout, in clusters, is:
//
//	0                        superblock
//	FATStartCluster ...      FAT region, FATClusters long
//	RootDirCluster           first cluster of the root directory
//	FirstDataCluster ...     data region
package layout

import (
	"fmt"

	"github.com/dargueta/flatfat/errors"
)

// ClusterID is the index of a cluster on the disk. It doubles as the type of a
// single FAT slot, which holds either the next cluster of a chain or one of the
// sentinels below.
type ClusterID int32

const (
	// FATEntryFree marks a cluster that isn't part of any chain. Like
	// FATEntryEOF it's negative, so it can't be mistaken for a cluster index.
	FATEntryFree ClusterID = -2
	// FATEntryEOF marks the last cluster of a chain, and every reserved cluster.
	FATEntryEOF ClusterID = -1
)

// SuperblockCluster is always the first cluster of the image.
const SuperblockCluster ClusterID = 0

// DirentSize is the size of a single raw directory entry, in bytes.
const DirentSize = 32

// FATEntrySize is the size of a single FAT slot on disk, in bytes.
const FATEntrySize = 4

// MinClusterSize is the smallest cluster that can hold the superblock.
const MinClusterSize = 64

// Geometry gives the static layout of a disk image. The fields are
// configuration, not behavior; use [Geometry.Validate] before trusting values
// that came from outside the program.
type Geometry struct {
	Slug string `csv:"slug" yaml:"slug"`
	Name string `csv:"name" yaml:"name"`
	// ClusterSize is the size of a cluster in bytes. It must be a multiple of
	// [DirentSize].
	ClusterSize uint `csv:"cluster_size" yaml:"cluster_size"`
	// TotalClusters is the number of clusters in the image, and the number of
	// slots in the FAT.
	TotalClusters uint `csv:"total_clusters" yaml:"total_clusters"`
	// FATStartCluster is the first cluster of the FAT region.
	FATStartCluster ClusterID `csv:"fat_start_cluster" yaml:"fat_start_cluster"`
	// FATClusters is the number of clusters reserved for the FAT region.
	FATClusters uint `csv:"fat_clusters" yaml:"fat_clusters"`
	// RootDirCluster is the first cluster of the root directory. It's allocated
	// when the image is formatted and never freed.
	RootDirCluster ClusterID `csv:"root_dir_cluster" yaml:"root_dir_cluster"`
	// FirstDataCluster is the lowest cluster the allocator will hand out.
	FirstDataCluster ClusterID `csv:"first_data_cluster" yaml:"first_data_cluster"`
	Notes            string    `csv:"notes" yaml:"notes,omitempty"`
}

// Default is the geometry used when none is given: 512-byte clusters, 512
// clusters, the FAT in clusters 1-4, the root directory in cluster 5.
var Default = Geometry{
	Slug:             "default",
	Name:             "Default 256 KiB image",
	ClusterSize:      512,
	TotalClusters:    512,
	FATStartCluster:  1,
	FATClusters:      4,
	RootDirCluster:   5,
	FirstDataCluster: 6,
}

// DirentsPerCluster gives the number of directory entry slots in one cluster.
func (g Geometry) DirentsPerCluster() int {
	return int(g.ClusterSize / DirentSize)
}

// FATSizeBytes gives the size of the serialized FAT, in bytes.
func (g Geometry) FATSizeBytes() uint {
	return g.TotalClusters * FATEntrySize
}

// FATRegionSizeBytes gives the size of the space reserved for the FAT, in bytes.
// This is always at least [Geometry.FATSizeBytes] for a valid geometry.
func (g Geometry) FATRegionSizeBytes() uint {
	return g.FATClusters * g.ClusterSize
}

// ImageSize gives the total size of the image in bytes.
func (g Geometry) ImageSize() int64 {
	return int64(g.ClusterSize) * int64(g.TotalClusters)
}

// IsValidCluster returns true if `cluster` is an index into the FAT.
func (g Geometry) IsValidCluster(cluster ClusterID) bool {
	return cluster >= 0 && uint(cluster) < g.TotalClusters
}

// IsReserved returns true for the superblock and the clusters of the FAT region.
// The root directory is not reserved; it's a normal chain that happens to be
// created at format time.
func (g Geometry) IsReserved(cluster ClusterID) bool {
	if cluster == SuperblockCluster {
		return true
	}
	return cluster >= g.FATStartCluster &&
		cluster < g.FATStartCluster+ClusterID(g.FATClusters)
}

// IsDataCluster returns true if `cluster` is in the allocatable data region.
func (g Geometry) IsDataCluster(cluster ClusterID) bool {
	return cluster >= g.FirstDataCluster && uint(cluster) < g.TotalClusters
}

// DataClusters gives the number of clusters in the data region.
func (g Geometry) DataClusters() uint {
	if uint(g.FirstDataCluster) >= g.TotalClusters {
		return 0
	}
	return g.TotalClusters - uint(g.FirstDataCluster)
}

// Validate checks the geometry for internal consistency. It returns an error
// with errno EINVAL naming the first problem found.
func (g Geometry) Validate() error {
	if g.ClusterSize < MinClusterSize || g.ClusterSize%DirentSize != 0 {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"cluster size must be a multiple of %d no smaller than %d, got %d",
				DirentSize,
				MinClusterSize,
				g.ClusterSize))
	}
	if g.TotalClusters > uint(1<<31-1) {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("total clusters %d doesn't fit in a FAT slot", g.TotalClusters))
	}
	if g.FATStartCluster <= SuperblockCluster {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"FAT region must start after the superblock, got cluster %d",
				g.FATStartCluster))
	}
	if g.FATRegionSizeBytes() < g.FATSizeBytes() {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"FAT region of %d clusters (%d B) can't hold %d entries (%d B)",
				g.FATClusters,
				g.FATRegionSizeBytes(),
				g.TotalClusters,
				g.FATSizeBytes()))
	}
	if g.RootDirCluster < g.FATStartCluster+ClusterID(g.FATClusters) {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"root directory cluster %d overlaps the reserved region [0, %d)",
				g.RootDirCluster,
				g.FATStartCluster+ClusterID(g.FATClusters)))
	}
	if g.FirstDataCluster <= g.RootDirCluster {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"first data cluster %d must come after the root directory cluster %d",
				g.FirstDataCluster,
				g.RootDirCluster))
	}
	if uint(g.FirstDataCluster) >= g.TotalClusters {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"image has no data region: first data cluster %d not in [0, %d)",
				g.FirstDataCluster,
				g.TotalClusters))
	}
	return nil
}

// String implements [fmt.Stringer].
func (g Geometry) String() string {
	return fmt.Sprintf(
		"%s: %d clusters of %d B, FAT at %d+%d, root at %d, data from %d",
		g.Slug,
		g.TotalClusters,
		g.ClusterSize,
		g.FATStartCluster,
		g.FATClusters,
		g.RootDirCluster,
		g.FirstDataCluster)
}
