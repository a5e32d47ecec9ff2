package directory

import (
	"encoding/binary"
	"fmt"

	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/layout"
	"github.com/dargueta/flatfat/names"
)

const (
	// AttrReadOnly marks a directory entry as read-only.
	AttrReadOnly = 1

	// AttrHidden marks a directory entry as "hidden", meaning it wouldn't show up
	// in normal directory listings. Nothing in this module honors it; it's stored
	// and returned unchanged.
	AttrHidden = 2

	// AttrSystem marks a directory entry as essential to the operating system.
	AttrSystem = 4

	// AttrVolumeLabel marks an entry as holding the volume label.
	AttrVolumeLabel = 8

	// AttrDirectory marks a directory entry as being a directory. There are no
	// subdirectories here, but the bit is preserved.
	AttrDirectory = 16

	// AttrArchived is set by some systems whenever the entry is created or
	// modified, so that backup tools know it needs to be archived.
	AttrArchived = 32

	// AttrDevice marks a directory entry as abstracting a device.
	AttrDevice = 64

	// AttrReserved is undefined and must not be modified by tools.
	AttrReserved = 128
)

// Offsets of the fields in an on-disk directory entry. Bytes 12-19 and 24-27 are
// unused and always written as zeroes.
const (
	nameOffset         = 0
	attributesOffset   = 11
	firstClusterOffset = 20
	fileSizeOffset     = 28
)

// Entry is one file in a directory.
type Entry struct {
	// Name is the decoded 8.3 name, e.g. "README.TXT". Any name accepted by
	// [names.Encode] can be used when creating an entry.
	Name         string
	Attributes   uint8
	FirstCluster layout.ClusterID
	FileSize     int32
}

// RawName returns the on-disk form of the entry's name.
func (e Entry) RawName() (names.RawName, error) {
	return names.Encode(e.Name)
}

// HasAttributes returns true if every bit in `flags` is set on the entry.
func (e Entry) HasAttributes(flags uint8) bool {
	return e.Attributes&flags == flags
}

// MarshalInto writes the 32-byte on-disk form of the entry into `slot`, which
// must be exactly [layout.DirentSize] bytes long.
func (e Entry) MarshalInto(slot []byte) error {
	if len(slot) != layout.DirentSize {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"directory slot must be %d bytes, got %d",
				layout.DirentSize,
				len(slot)))
	}

	rawName, err := e.RawName()
	if err != nil {
		return err
	}

	for i := range slot {
		slot[i] = 0
	}
	copy(slot[nameOffset:attributesOffset], rawName[:])
	slot[attributesOffset] = e.Attributes
	binary.LittleEndian.PutUint32(slot[firstClusterOffset:], uint32(e.FirstCluster))
	binary.LittleEndian.PutUint32(slot[fileSizeOffset:], uint32(e.FileSize))
	return nil
}

// MarshalBinary returns the 32-byte on-disk form of the entry.
func (e Entry) MarshalBinary() ([]byte, error) {
	slot := make([]byte, layout.DirentSize)
	if err := e.MarshalInto(slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// SlotState tells whether a directory slot holds an entry.
type SlotState int

const (
	// SlotFree is a slot whose first byte is 0. Whatever follows is leftover data
	// and has no meaning.
	SlotFree SlotState = iota
	// SlotOccupied is a slot holding a live entry.
	SlotOccupied
)

func (s SlotState) String() string {
	if s == SlotFree {
		return "free"
	}
	return "occupied"
}

// Slot is a decoded directory slot. Entry is only meaningful if State is
// SlotOccupied.
type Slot struct {
	State SlotState
	Entry Entry
	raw   names.RawName
}

// IsFree returns true if the slot can be reused for a new entry.
func (s Slot) IsFree() bool {
	return s.State == SlotFree
}

// DecodeSlot decodes a 32-byte directory slot.
func DecodeSlot(slot []byte) (Slot, error) {
	if len(slot) != layout.DirentSize {
		return Slot{}, errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"directory slot must be %d bytes, got %d",
				layout.DirentSize,
				len(slot)))
	}

	if slot[nameOffset] == 0 {
		return Slot{State: SlotFree}, nil
	}

	raw := names.FromBytes(slot[nameOffset:attributesOffset])
	return Slot{
		State: SlotOccupied,
		raw:   raw,
		Entry: Entry{
			Name:         names.Decode(raw),
			Attributes:   slot[attributesOffset],
			FirstCluster: layout.ClusterID(int32(binary.LittleEndian.Uint32(slot[firstClusterOffset:]))),
			FileSize:     int32(binary.LittleEndian.Uint32(slot[fileSizeOffset:])),
		},
	}, nil
}
