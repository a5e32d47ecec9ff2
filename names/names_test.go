package names_test

import (
	"strings"
	"testing"

	"github.com/dargueta/flatfat/errors"
	"github.com/dargueta/flatfat/names"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type filenameTest struct {
	Filename   string
	BinaryForm string
}

var filenameTests = [...]filenameTest{
	{Filename: "qwerty.txt", BinaryForm: "QWERTY  TXT"},
	{Filename: "TestFile.txt", BinaryForm: "TESTFILETXT"},
	{Filename: "aSdF.g", BinaryForm: "ASDF    G  "},
	{Filename: "noext", BinaryForm: "NOEXT      "},
	{Filename: "a B.C", BinaryForm: "A B     C  "},
	{Filename: "trailing.", BinaryForm: "TRAILING   "},
	{Filename: "  padded.md  ", BinaryForm: "PADDED  MD "},
}

func TestEncode(t *testing.T) {
	for _, test := range filenameTests {
		raw, err := names.Encode(test.Filename)
		if assert.NoErrorf(t, err, "error encoding %q", test.Filename) {
			assert.Equalf(
				t, test.BinaryForm, string(raw[:]), "encoded form of %q is wrong", test.Filename)
		}
	}
}

func TestDecode(t *testing.T) {
	for _, test := range filenameTests {
		decoded := names.Decode(names.FromBytes([]byte(test.BinaryForm)))
		expected := strings.TrimSuffix(strings.TrimSpace(test.Filename), ".")
		assert.Truef(
			t,
			strings.EqualFold(expected, decoded),
			"decoded name is wrong; expected %q, got %q",
			strings.ToUpper(expected),
			decoded)
	}
}

func TestEncode__Errors(t *testing.T) {
	tests := []struct {
		name     string
		expected error
	}{
		{"", errors.ErrInvalidArgument},
		{"   ", errors.ErrInvalidArgument},
		{".txt", errors.ErrInvalidArgument},
		{"ninechars.txt", errors.ErrNameTooLong},
		{"file.text", errors.ErrNameTooLong},
		{"a.b.c", errors.ErrInvalidArgument},
		{"what?.txt", errors.ErrInvalidArgument},
		{"tab\there", errors.ErrInvalidArgument},
	}

	for _, tt := range tests {
		_, err := names.Encode(tt.name)
		assert.ErrorIsf(t, err, tt.expected, "wrong error for %q", tt.name)
	}
}

func TestEncode__CodePage(t *testing.T) {
	raw, err := names.Encode("café.txt")
	require.NoError(t, err)
	// É is 0x90 in code page 437.
	assert.Equal(t, byte(0x90), raw[3])
	assert.Equal(t, "CAFÉ.TXT", names.Decode(raw))

	raw, err = names.Encode("日本.txt")
	require.NoError(t, err)
	assert.Equal(t, "__.TXT", names.Decode(raw), "unsupported characters must be replaced")
}

func TestCanonical(t *testing.T) {
	canonical, err := names.Canonical("TestFile.txt")
	require.NoError(t, err)
	assert.Equal(t, "TESTFILE.TXT", canonical)

	canonical, err = names.Canonical("readme")
	require.NoError(t, err)
	assert.Equal(t, "README", canonical)
}

func TestEqual__CaseInsensitive(t *testing.T) {
	left := names.FromBytes([]byte("TESTFILETXT"))
	right := names.FromBytes([]byte("testFILEtxt"))
	assert.True(t, names.Equal(left, right))

	other := names.FromBytes([]byte("TESTFILETXU"))
	assert.False(t, names.Equal(left, other))

	// Bytes above 0x7f only compare equal to themselves.
	high1 := names.FromBytes([]byte{0x90, 'A', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '})
	high2 := names.FromBytes([]byte{0x82, 'A', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '})
	assert.False(t, names.Equal(high1, high2))
}
