// Package directory implements flat directories: chains of clusters, each
// divided into fixed 32-byte entry slots.
//
// A slot whose first byte is 0 is free. New entries go into the first free slot
// in the chain, and when there isn't one the directory grows by one cluster.
// Directories never shrink.
package directory

import (
	"log/slog"

	"github.com/dargueta/flatfat/fat"
	"github.com/dargueta/flatfat/internal/logging"
	"github.com/dargueta/flatfat/layout"
	"github.com/dargueta/flatfat/names"
	"github.com/dargueta/flatfat/storage"
)

// ClearMode controls how much of a slot is wiped when its entry is removed.
type ClearMode int

const (
	// ClearFirstByte only zeroes the first byte of the slot. The rest of the old
	// entry stays on disk until the slot is reused.
	ClearFirstByte ClearMode = iota
	// ClearWholeSlot zeroes all 32 bytes of the slot.
	ClearWholeSlot
)

// Option configures a [Manager].
type Option func(*Manager)

// WithClearMode sets how removed slots are wiped. The default is
// [ClearFirstByte].
func WithClearMode(mode ClearMode) Option {
	return func(m *Manager) {
		m.clearMode = mode
	}
}

// Manager reads and modifies directories stored in the image. It works on any
// directory given the first cluster of its chain.
//
// Manager is not safe for concurrent use, and must not be used concurrently
// with other users of its FAT table.
type Manager struct {
	table     *fat.Table
	storage   storage.BlockStorage
	geometry  layout.Geometry
	logger    *slog.Logger
	clearMode ClearMode
}

// NewManager creates a directory manager that allocates clusters from `table`
// and reads and writes directory clusters through `store`.
func NewManager(
	table *fat.Table,
	store storage.BlockStorage,
	geometry layout.Geometry,
	logger *slog.Logger,
	opts ...Option,
) *Manager {
	m := &Manager{
		table:     table,
		storage:   store,
		geometry:  geometry,
		logger:    logging.OrDiscard(logger),
		clearMode: ClearFirstByte,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// slotLocation identifies a slot within a directory cluster that has already
// been read into memory.
type slotLocation struct {
	cluster layout.ClusterID
	data    []byte
	offset  int
}

func (loc slotLocation) bytes() []byte {
	return loc.data[loc.offset : loc.offset+layout.DirentSize]
}

// visitFunc is called for each slot in a directory. Returning true stops the
// scan.
type visitFunc func(loc slotLocation, slot Slot) (bool, error)

// scan calls `visit` for every slot in the directory starting at `start`, in
// cluster order and then offset order. It returns the chain of the directory
// and whether `visit` stopped the scan.
func (m *Manager) scan(start layout.ClusterID, visit visitFunc) ([]layout.ClusterID, bool, error) {
	chain, err := m.table.FollowChain(start)
	if err != nil {
		return nil, false, err
	}

	for _, cluster := range chain {
		data, err := m.storage.ReadCluster(cluster)
		if err != nil {
			return chain, false, err
		}

		for offset := 0; offset+layout.DirentSize <= len(data); offset += layout.DirentSize {
			loc := slotLocation{cluster: cluster, data: data, offset: offset}
			slot, err := DecodeSlot(loc.bytes())
			if err != nil {
				return chain, false, err
			}

			stop, err := visit(loc, slot)
			if err != nil || stop {
				return chain, stop, err
			}
		}
	}
	return chain, false, nil
}

// findSlot returns the location of the first occupied slot whose name matches
// `raw`, ignoring case.
func (m *Manager) findSlot(start layout.ClusterID, raw names.RawName) (slotLocation, Slot, bool, error) {
	var foundLoc slotLocation
	var foundSlot Slot

	_, found, err := m.scan(
		start,
		func(loc slotLocation, slot Slot) (bool, error) {
			if slot.IsFree() || !names.Equal(slot.raw, raw) {
				return false, nil
			}
			foundLoc = loc
			foundSlot = slot
			return true, nil
		},
	)
	return foundLoc, foundSlot, found, err
}

// ReadDirectory returns every entry in the directory starting at `start`, in
// the order they're stored on disk. Free slots are skipped.
func (m *Manager) ReadDirectory(start layout.ClusterID) ([]Entry, error) {
	entries := []Entry{}
	_, _, err := m.scan(
		start,
		func(_ slotLocation, slot Slot) (bool, error) {
			if !slot.IsFree() {
				entries = append(entries, slot.Entry)
			}
			return false, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// FindEntry looks up `name` in the directory starting at `start`. The name is
// converted to its 8.3 form first, and compared without regard to case. If no
// entry matches, the boolean return value is false and the error is nil.
//
// A name that can't be converted to 8.3 form gives an error.
func (m *Manager) FindEntry(start layout.ClusterID, name string) (Entry, bool, error) {
	raw, err := names.Encode(name)
	if err != nil {
		return Entry{}, false, err
	}

	_, slot, found, err := m.findSlot(start, raw)
	if err != nil || !found {
		return Entry{}, false, err
	}
	return slot.Entry, true, nil
}

// AddEntry stores `entry` in the first free slot of the directory starting at
// `start`.
//
// If every slot is in use, one cluster is allocated, zeroed, and linked to the
// end of the directory's chain, and the entry is written to its first slot.
// The FAT is flushed after growing. Duplicate names aren't checked for.
func (m *Manager) AddEntry(start layout.ClusterID, entry Entry) error {
	encoded, err := entry.MarshalBinary()
	if err != nil {
		return err
	}

	chain, stored, err := m.scan(
		start,
		func(loc slotLocation, slot Slot) (bool, error) {
			if !slot.IsFree() {
				return false, nil
			}
			copy(loc.bytes(), encoded)
			if err := m.storage.WriteCluster(loc.cluster, loc.data); err != nil {
				return false, err
			}

			m.logger.Debug(
				"added directory entry",
				slog.String("name", entry.Name),
				logging.Cluster("cluster", int32(loc.cluster)),
				slog.Int("offset", loc.offset))
			return true, nil
		},
	)
	if err != nil || stored {
		return err
	}

	return m.grow(chain[len(chain)-1], encoded, entry.Name)
}

// grow appends a new cluster to a directory whose last cluster is `tail`, and
// writes `encoded` into its first slot. On failure the in-memory FAT is put
// back the way it was, with `tail` ending the directory again.
func (m *Manager) grow(tail layout.ClusterID, encoded []byte, name string) error {
	newCluster, err := m.table.AllocateChain(1)
	if err != nil {
		return err
	}

	data := make([]byte, m.geometry.ClusterSize)
	copy(data, encoded)
	err = m.storage.WriteCluster(newCluster, data)
	if err != nil {
		// Nothing points at the new cluster yet, so releasing it can't fail.
		_ = m.table.FreeChain(newCluster)
		return err
	}

	err = m.table.SetEntry(tail, newCluster)
	if err != nil {
		_ = m.table.FreeChain(newCluster)
		return err
	}

	err = m.table.Flush()
	if err != nil {
		// The disk may or may not have the link. Unlink in memory so the next
		// successful flush writes the directory as it was before.
		_ = m.table.SetEntry(tail, layout.FATEntryEOF)
		_ = m.table.FreeChain(newCluster)
		m.logger.Warn(
			"failed to extend directory",
			slog.String("name", name),
			logging.Cluster("tail", int32(tail)),
			slog.Any("error", err))
		return err
	}

	m.logger.Debug(
		"extended directory",
		slog.String("name", name),
		logging.Cluster("tail", int32(tail)),
		logging.Cluster("new", int32(newCluster)))
	return nil
}

// RemoveEntry frees the slot of the first entry in the directory starting at
// `start` whose name matches `entry.Name`, ignoring case. Only the name is used
// for matching.
//
// If the entry stored on disk has a first cluster in the data region, that
// cluster's chain is freed and the FAT flushed. A first cluster that's already
// FREE has nothing to release. Removing a name that isn't in the directory does
// nothing and isn't an error.
//
// The slot is cleared before the chain is freed. If the chain turns out to be
// corrupt, RemoveEntry returns EUCLEAN but the entry is already gone, and the
// FAT is left as it was.
func (m *Manager) RemoveEntry(start layout.ClusterID, entry Entry) error {
	raw, err := entry.RawName()
	if err != nil {
		return err
	}

	loc, slot, found, err := m.findSlot(start, raw)
	if err != nil || !found {
		return err
	}

	// The entry is removed before its clusters are released. If freeing the
	// chain fails, the clusters are lost but nothing points at them.
	if m.clearMode == ClearWholeSlot {
		clear(loc.bytes())
	} else {
		loc.data[loc.offset] = 0
	}
	err = m.storage.WriteCluster(loc.cluster, loc.data)
	if err != nil {
		return err
	}

	m.logger.Debug(
		"removed directory entry",
		slog.String("name", slot.Entry.Name),
		logging.Cluster("cluster", int32(loc.cluster)),
		slog.Int("offset", loc.offset))

	if !m.geometry.IsDataCluster(slot.Entry.FirstCluster) {
		return nil
	}

	head, err := m.table.Entry(slot.Entry.FirstCluster)
	if err != nil {
		return err
	}
	if head == layout.FATEntryFree {
		m.logger.Warn(
			"removed entry had no allocated clusters",
			slog.String("name", slot.Entry.Name),
			logging.Cluster("first_cluster", int32(slot.Entry.FirstCluster)))
		return nil
	}

	err = m.table.FreeChain(slot.Entry.FirstCluster)
	if err != nil {
		return err
	}
	return m.table.Flush()
}

// Capacity gives the total number of slots in the directory starting at
// `start`, free or not.
func (m *Manager) Capacity(start layout.ClusterID) (int, error) {
	chain, err := m.table.FollowChain(start)
	if err != nil {
		return 0, err
	}
	return len(chain) * m.geometry.DirentsPerCluster(), nil
}
