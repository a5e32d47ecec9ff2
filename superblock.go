package flatfat

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/layout"
	"github.com/noxer/bytewriter"
)

// SuperblockMagic identifies a flatfat image. It's the first eight bytes of
// cluster 0.
const SuperblockMagic = "FLATFAT1"

// SuperblockVersion is the only layout version this package reads and writes.
const SuperblockVersion = 1

// rawSuperblock is the on-disk form of the superblock. All integers are
// little-endian, and the rest of cluster 0 is zero.
type rawSuperblock struct {
	Magic            [8]byte
	Version          uint32
	ClusterSize      uint32
	TotalClusters    uint32
	FATStartCluster  int32
	FATClusters      uint32
	RootDirCluster   int32
	FirstDataCluster int32
}

// superblockSize is the number of bytes of cluster 0 that are in use.
var superblockSize = binary.Size(rawSuperblock{})

func encodeSuperblock(geometry layout.Geometry) ([]byte, error) {
	raw := rawSuperblock{
		Version:          SuperblockVersion,
		ClusterSize:      uint32(geometry.ClusterSize),
		TotalClusters:    uint32(geometry.TotalClusters),
		FATStartCluster:  int32(geometry.FATStartCluster),
		FATClusters:      uint32(geometry.FATClusters),
		RootDirCluster:   int32(geometry.RootDirCluster),
		FirstDataCluster: int32(geometry.FirstDataCluster),
	}
	copy(raw.Magic[:], SuperblockMagic)

	cluster := make([]byte, geometry.ClusterSize)
	err := binary.Write(bytewriter.New(cluster), binary.LittleEndian, &raw)
	if err != nil {
		return nil, errors.ErrIOFailed.Wrap(err)
	}
	return cluster, nil
}

// decodeSuperblock extracts the geometry from the beginning of cluster 0. Only
// the first [superblockSize] bytes of `data` are looked at.
func decodeSuperblock(data []byte) (layout.Geometry, error) {
	if len(data) < superblockSize {
		return layout.Geometry{}, errors.ErrInvalidFileSystem.WithMessage(
			fmt.Sprintf(
				"superblock needs %d bytes, got %d",
				superblockSize,
				len(data)))
	}

	var raw rawSuperblock
	err := binary.Read(bytes.NewReader(data[:superblockSize]), binary.LittleEndian, &raw)
	if err != nil {
		return layout.Geometry{}, errors.ErrIOFailed.Wrap(err)
	}

	if string(raw.Magic[:]) != SuperblockMagic {
		return layout.Geometry{}, errors.ErrInvalidFileSystem.WithMessage(
			fmt.Sprintf("bad magic %q, expected %q", raw.Magic[:], SuperblockMagic))
	}
	if raw.Version != SuperblockVersion {
		return layout.Geometry{}, errors.ErrNotSupported.WithMessage(
			fmt.Sprintf("unsupported layout version %d", raw.Version))
	}

	geometry := layout.Geometry{
		ClusterSize:      uint(raw.ClusterSize),
		TotalClusters:    uint(raw.TotalClusters),
		FATStartCluster:  layout.ClusterID(raw.FATStartCluster),
		FATClusters:      uint(raw.FATClusters),
		RootDirCluster:   layout.ClusterID(raw.RootDirCluster),
		FirstDataCluster: layout.ClusterID(raw.FirstDataCluster),
	}
	if err = geometry.Validate(); err != nil {
		return layout.Geometry{}, errors.ErrFileSystemCorrupted.Wrap(err)
	}
	return geometry, nil
}
