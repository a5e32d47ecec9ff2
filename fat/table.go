// Package fat implements the file allocation table: an in-memory array with one
// slot per cluster, mirrored to the FAT region of the disk image on demand.
//
// A slot holds [layout.FATEntryFree], [layout.FATEntryEOF], or the index of the
// next cluster in a chain. Nothing in this package writes to the disk unless
// [Table.Flush] is called.
package fat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/internal/logging"
	"github.com/dargueta/flatfat/layout"
	"github.com/dargueta/flatfat/storage"
	"github.com/noxer/bytewriter"
)

// Table is the in-memory copy of the FAT.
//
// Table is not safe for concurrent use.
type Table struct {
	geometry layout.Geometry
	storage  storage.BlockStorage
	entries  []layout.ClusterID
	logger   *slog.Logger
}

// New creates a table for `geometry` with every slot free. Call [Table.Format]
// or [Table.Load] before using it.
func New(store storage.BlockStorage, geometry layout.Geometry, logger *slog.Logger) *Table {
	entries := make([]layout.ClusterID, geometry.TotalClusters)
	for i := range entries {
		entries[i] = layout.FATEntryFree
	}
	return &Table{
		geometry: geometry,
		storage:  store,
		entries:  entries,
		logger:   logging.OrDiscard(logger),
	}
}

// Geometry returns the geometry the table was created with.
func (t *Table) Geometry() layout.Geometry {
	return t.geometry
}

// Len gives the number of slots in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

func (t *Table) checkIndex(index layout.ClusterID) error {
	if index < 0 || int(index) >= len(t.entries) {
		return errors.ErrArgumentOutOfRange.WithMessage(
			fmt.Sprintf(
				"invalid cluster index %d: not in range [0, %d)",
				index,
				len(t.entries)))
	}
	return nil
}

// Entry returns the raw value of the slot for cluster `index`.
func (t *Table) Entry(index layout.ClusterID) (layout.ClusterID, error) {
	if err := t.checkIndex(index); err != nil {
		return 0, err
	}
	return t.entries[index], nil
}

// SetEntry sets the raw value of the slot for cluster `index`. The change is
// only made in memory.
func (t *Table) SetEntry(index, value layout.ClusterID) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	t.entries[index] = value
	return nil
}

// WriteAll replaces every slot in the table. `values` must have exactly
// [Table.Len] elements. The caller is responsible for the reserved and root
// directory slots; nothing is validated beyond the length.
func (t *Table) WriteAll(values []layout.ClusterID) error {
	if len(values) != len(t.entries) {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"FAT has %d entries, got %d values",
				len(t.entries),
				len(values)))
	}
	copy(t.entries, values)
	return nil
}

// Snapshot returns a copy of every slot in the table.
func (t *Table) Snapshot() []layout.ClusterID {
	snapshot := make([]layout.ClusterID, len(t.entries))
	copy(snapshot, t.entries)
	return snapshot
}

// Format resets the table to the state of a freshly formatted image: the
// superblock, the FAT region and the root directory are end-of-chain, as is
// anything else below the first data cluster. All data clusters are free. It
// doesn't flush.
func (t *Table) Format() {
	for i := range t.entries {
		if layout.ClusterID(i) < t.geometry.FirstDataCluster {
			t.entries[i] = layout.FATEntryEOF
		} else {
			t.entries[i] = layout.FATEntryFree
		}
	}
}

////////////////////////////////////////////////////////////////////////////////
// Persistence

// Load reads the FAT region of the image into memory, replacing the current
// contents of the table. It fails with errno EUCLEAN if a reserved slot isn't
// end-of-chain or the root directory is marked free.
func (t *Table) Load() error {
	region := make([]byte, 0, t.geometry.FATRegionSizeBytes())
	for i := uint(0); i < t.geometry.FATClusters; i++ {
		data, err := t.storage.ReadCluster(t.geometry.FATStartCluster + layout.ClusterID(i))
		if err != nil {
			return err
		}
		region = append(region, data...)
	}

	entries := make([]layout.ClusterID, len(t.entries))
	reader := bytes.NewReader(region[:t.geometry.FATSizeBytes()])
	err := binary.Read(reader, binary.LittleEndian, entries)
	if err != nil {
		return errors.ErrIOFailed.Wrap(err)
	}

	for i, value := range entries {
		cluster := layout.ClusterID(i)
		if t.geometry.IsReserved(cluster) && value != layout.FATEntryEOF {
			return errors.ErrFileSystemCorrupted.WithMessage(
				fmt.Sprintf(
					"reserved cluster %d has FAT value %d, expected end of chain",
					cluster,
					value))
		}
	}
	if entries[t.geometry.RootDirCluster] == layout.FATEntryFree {
		return errors.ErrFileSystemCorrupted.WithMessage(
			fmt.Sprintf(
				"root directory cluster %d is marked free", t.geometry.RootDirCluster))
	}

	t.entries = entries
	t.logger.Debug("loaded FAT", slog.Int("entries", len(entries)))
	return nil
}

// Flush writes the whole table to the FAT region of the image as little-endian
// 32-bit integers. Unused space at the end of the region is zeroed.
//
// Clusters are written one at a time, so a failure part way through leaves the
// on-disk FAT partially updated.
func (t *Table) Flush() error {
	region := make([]byte, t.geometry.FATRegionSizeBytes())
	err := binary.Write(bytewriter.New(region), binary.LittleEndian, t.entries)
	if err != nil {
		return errors.ErrIOFailed.Wrap(err)
	}

	clusterSize := t.geometry.ClusterSize
	for i := uint(0); i < t.geometry.FATClusters; i++ {
		cluster := t.geometry.FATStartCluster + layout.ClusterID(i)
		err = t.storage.WriteCluster(cluster, region[i*clusterSize:(i+1)*clusterSize])
		if err != nil {
			return err
		}
	}

	t.logger.Debug("flushed FAT", slog.Int("clusters", int(t.geometry.FATClusters)))
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// Chains

// AllocateChain finds `count` free clusters, links them into a chain, and
// returns the first cluster of the chain.
//
// Clusters are taken first-fit, scanning upwards from the first data cluster,
// and linked in scan order. Given the same table, the same clusters are always
// returned. If there aren't enough free clusters the table is left untouched.
// The table isn't flushed.
func (t *Table) AllocateChain(count int) (layout.ClusterID, error) {
	if count < 1 {
		return 0, errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("can't allocate a chain of %d clusters", count))
	}

	found := make([]layout.ClusterID, 0, count)
	for i := int(t.geometry.FirstDataCluster); i < len(t.entries) && len(found) < count; i++ {
		if t.entries[i] == layout.FATEntryFree {
			found = append(found, layout.ClusterID(i))
		}
	}

	if len(found) < count {
		return 0, errors.ErrNoSpaceOnDevice.WithMessage(
			fmt.Sprintf(
				"need %d free clusters, only %d available",
				count,
				len(found)))
	}

	for i := 0; i < count-1; i++ {
		t.entries[found[i]] = found[i+1]
	}
	t.entries[found[count-1]] = layout.FATEntryEOF

	t.logger.Debug(
		"allocated chain",
		logging.Cluster("first", int32(found[0])),
		slog.Int("length", count))
	return found[0], nil
}

// FollowChain returns every cluster in the chain beginning at `start`, in
// order, with `start` first.
//
// A chain that links to a free cluster, to a cluster outside the data region,
// or back to a cluster it already visited is reported as errno EUCLEAN along
// with the clusters visited so far. Only the first cluster of a chain may lie
// outside the data region.
func (t *Table) FollowChain(start layout.ClusterID) ([]layout.ClusterID, error) {
	if err := t.checkIndex(start); err != nil {
		return nil, err
	}

	visited := bitmap.New(len(t.entries))
	chain := []layout.ClusterID{}
	current := start

	for {
		if visited.Get(int(current)) {
			return chain, errors.ErrFileSystemCorrupted.WithMessage(
				fmt.Sprintf(
					"cycle detected: cluster %d appears twice in chain from %d",
					current,
					start))
		}
		visited.Set(int(current), true)
		chain = append(chain, current)

		next := t.entries[current]
		if next == layout.FATEntryEOF {
			return chain, nil
		}

		if next == layout.FATEntryFree || !t.geometry.IsDataCluster(next) {
			// Hit an invalid cluster. This is not the same as EOF, and usually
			// indicates corruption of some sort.
			return chain, errors.ErrFileSystemCorrupted.WithMessage(
				fmt.Sprintf(
					"cluster %d followed by invalid cluster %d at index %d in chain from %d",
					current,
					next,
					len(chain)-1,
					start))
		}
		current = next
	}
}

// FreeChain marks every cluster in the chain beginning at `start` as free. The
// whole chain is validated first, so a corrupt chain leaves the table unchanged.
// The table isn't flushed.
func (t *Table) FreeChain(start layout.ClusterID) error {
	chain, err := t.FollowChain(start)
	if err != nil {
		return err
	}

	for _, cluster := range chain {
		t.entries[cluster] = layout.FATEntryFree
	}

	t.logger.Debug(
		"freed chain",
		logging.Cluster("first", int32(start)),
		slog.Int("length", len(chain)))
	return nil
}

// CountFree gives the number of free clusters in the data region.
func (t *Table) CountFree() uint {
	free := uint(0)
	for i := int(t.geometry.FirstDataCluster); i < len(t.entries); i++ {
		if t.entries[i] == layout.FATEntryFree {
			free++
		}
	}
	return free
}
