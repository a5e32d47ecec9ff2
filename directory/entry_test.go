package directory_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/dargueta/flatfat/directory"
	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/layout"
	flatfattest "github.com/dargueta/flatfat/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry__RoundTrip(t *testing.T) {
	testCases := []struct {
		entry        directory.Entry
		expectedName string
	}{
		{directory.Entry{Name: "TestFile.txt", Attributes: 0, FirstCluster: 6, FileSize: 1234}, "TESTFILE.TXT"},
		{directory.Entry{Name: "readme", Attributes: directory.AttrReadOnly | directory.AttrHidden, FirstCluster: 7, FileSize: 0}, "README"},
		{directory.Entry{Name: "A.B", Attributes: 0xff, FirstCluster: layout.FATEntryEOF, FileSize: -1}, "A.B"},
		{directory.Entry{Name: "12345678.abc", Attributes: directory.AttrArchived, FirstCluster: math.MaxInt32, FileSize: math.MaxInt32}, "12345678.ABC"},
		{directory.Entry{Name: "x", Attributes: 0, FirstCluster: 0, FileSize: math.MinInt32}, "X"},
	}

	for _, tc := range testCases {
		t.Run(tc.entry.Name, func(t *testing.T) {
			data, err := tc.entry.MarshalBinary()
			require.NoError(t, err)
			require.Len(t, data, layout.DirentSize)

			slot, err := directory.DecodeSlot(data)
			require.NoError(t, err)
			require.Equal(t, directory.SlotOccupied, slot.State)

			assert.Equal(t, tc.expectedName, slot.Entry.Name)
			assert.Equal(t, tc.entry.Attributes, slot.Entry.Attributes)
			assert.Equal(t, tc.entry.FirstCluster, slot.Entry.FirstCluster)
			assert.Equal(t, tc.entry.FileSize, slot.Entry.FileSize)
		})
	}
}

func TestEntry__BinaryLayout(t *testing.T) {
	entry := directory.Entry{
		Name:         "boot.sys",
		Attributes:   directory.AttrSystem,
		FirstCluster: 0x01020304,
		FileSize:     -2,
	}

	// Fill the slot with garbage to make sure the unused bytes get cleared.
	slot := make([]byte, layout.DirentSize)
	for i := range slot {
		slot[i] = 0xa5
	}
	require.NoError(t, entry.MarshalInto(slot))

	assert.Equal(t, []byte("BOOT    SYS"), slot[0:11])
	assert.EqualValues(t, directory.AttrSystem, slot[11])
	assert.Equal(t, make([]byte, 8), slot[12:20], "bytes 12-19 should be zero")
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, slot[20:24])
	assert.Equal(t, make([]byte, 4), slot[24:28], "bytes 24-27 should be zero")
	assert.EqualValues(t, 0xfffffffe, binary.LittleEndian.Uint32(slot[28:32]))
}

func TestEntry__MarshalErrors(t *testing.T) {
	entry := directory.Entry{Name: "OK.TXT"}

	err := entry.MarshalInto(make([]byte, layout.DirentSize-1))
	flatfattest.RequireErrno(t, err, errors.EINVAL)

	entry.Name = "much_too_long.txt"
	_, err = entry.MarshalBinary()
	flatfattest.RequireErrno(t, err, errors.ENAMETOOLONG)

	entry.Name = ""
	_, err = entry.MarshalBinary()
	flatfattest.RequireErrno(t, err, errors.EINVAL)
}

func TestDecodeSlot__Free(t *testing.T) {
	data, err := directory.Entry{Name: "GONE.TXT", FirstCluster: 9}.MarshalBinary()
	require.NoError(t, err)
	data[0] = 0

	slot, err := directory.DecodeSlot(data)
	require.NoError(t, err)
	assert.True(t, slot.IsFree())
	assert.Equal(t, directory.Entry{}, slot.Entry, "free slot shouldn't expose stale data")
}

func TestDecodeSlot__WrongSize(t *testing.T) {
	_, err := directory.DecodeSlot(make([]byte, 33))
	flatfattest.RequireErrno(t, err, errors.EINVAL)
}

func TestEntry__HasAttributes(t *testing.T) {
	entry := directory.Entry{Attributes: directory.AttrReadOnly | directory.AttrSystem}
	assert.True(t, entry.HasAttributes(directory.AttrReadOnly))
	assert.True(t, entry.HasAttributes(directory.AttrReadOnly|directory.AttrSystem))
	assert.False(t, entry.HasAttributes(directory.AttrReadOnly|directory.AttrHidden))
}
