package flatfat

import (
	"encoding/binary"
	"testing"

	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/layout"
	flatfattest "github.com/dargueta/flatfat/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuperblock__RoundTrip(t *testing.T) {
	for _, geometry := range layout.PredefinedGeometries() {
		t.Run(geometry.Slug, func(t *testing.T) {
			data, err := encodeSuperblock(geometry)
			require.NoError(t, err)
			require.Len(t, data, int(geometry.ClusterSize))

			decoded, err := decodeSuperblock(data)
			require.NoError(t, err)

			// Slug, name and notes aren't stored.
			expected := geometry
			expected.Slug = ""
			expected.Name = ""
			expected.Notes = ""
			assert.Equal(t, expected, decoded)
		})
	}
}

func TestSuperblock__Layout(t *testing.T) {
	data, err := encodeSuperblock(flatfattest.SmallGeometry)
	require.NoError(t, err)

	assert.Equal(t, []byte(SuperblockMagic), data[:8])
	assert.EqualValues(t, SuperblockVersion, binary.LittleEndian.Uint32(data[8:12]))
	assert.EqualValues(t, 128, binary.LittleEndian.Uint32(data[12:16]))
	assert.EqualValues(t, 64, binary.LittleEndian.Uint32(data[16:20]))
	assert.Equal(t, make([]byte, len(data)-superblockSize), data[superblockSize:])
}

func TestSuperblock__BadMagic(t *testing.T) {
	data, err := encodeSuperblock(flatfattest.SmallGeometry)
	require.NoError(t, err)
	data[0] = 'X'

	_, err = decodeSuperblock(data)
	flatfattest.RequireErrno(t, err, errors.EMEDIUMTYPE)
}

func TestSuperblock__UnsupportedVersion(t *testing.T) {
	data, err := encodeSuperblock(flatfattest.SmallGeometry)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(data[8:12], 7)

	_, err = decodeSuperblock(data)
	flatfattest.RequireErrno(t, err, errors.ENOTSUP)
}

func TestSuperblock__InvalidGeometry(t *testing.T) {
	data, err := encodeSuperblock(flatfattest.SmallGeometry)
	require.NoError(t, err)
	// Cluster size of 100 isn't a multiple of the directory entry size.
	binary.LittleEndian.PutUint32(data[12:16], 100)

	_, err = decodeSuperblock(data)
	flatfattest.RequireErrno(t, err, errors.EUCLEAN)
}

func TestSuperblock__Truncated(t *testing.T) {
	_, err := decodeSuperblock(make([]byte, 10))
	flatfattest.RequireErrno(t, err, errors.EMEDIUMTYPE)
}
