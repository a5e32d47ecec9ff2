// Package names converts between user-facing file names and the fixed-width
// 8.3 form stored in directory entries.
//
// On disk a name is eleven bytes: an eight-byte base and a three-byte extension,
// both uppercased and padded with spaces. The dot is implicit. Characters are
// stored one byte each in code page 437; anything outside that code page is
// replaced with an underscore, so encoding is lossy for such names.
package names

import (
	"fmt"
	"strings"

	"github.com/dargueta/flatfat/errors"
	"golang.org/x/text/encoding/charmap"
)

const (
	// BaseLength is the maximum length of the part of the name before the dot.
	BaseLength = 8
	// ExtensionLength is the maximum length of the part of the name after the dot.
	ExtensionLength = 3
	// Length is the size of the on-disk name field.
	Length = BaseLength + ExtensionLength
)

// substituteByte replaces characters that can't be represented in the code page.
const substituteByte = '_'

// forbiddenCharacters can't appear anywhere in a name.
const forbiddenCharacters = "\"*+,./:;<=>?[\\]|"

// RawName is the on-disk representation of a name.
type RawName [Length]byte

var codePage = charmap.CodePage437

// Encode converts a name to its on-disk representation. The name is split at
// the last dot; the part before it becomes the base and the part after it the
// extension. Both are uppercased and space-padded.
func Encode(name string) (RawName, error) {
	var raw RawName

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return raw, errors.ErrInvalidArgument.WithMessage("file name is empty")
	}

	base := trimmed
	extension := ""
	if dot := strings.LastIndexByte(trimmed, '.'); dot >= 0 {
		base = trimmed[:dot]
		extension = trimmed[dot+1:]
	}

	if base == "" {
		return raw, errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("file name %q has no base name", name))
	}

	encodedBase, err := encodePart(base, name)
	if err != nil {
		return raw, err
	}
	if len(encodedBase) > BaseLength {
		return raw, errors.ErrNameTooLong.WithMessage(
			fmt.Sprintf(
				"base name can be at most %d characters: %q", BaseLength, base))
	}

	encodedExtension, err := encodePart(extension, name)
	if err != nil {
		return raw, err
	}
	if len(encodedExtension) > ExtensionLength {
		return raw, errors.ErrNameTooLong.WithMessage(
			fmt.Sprintf(
				"extension can be at most %d characters: %q", ExtensionLength, extension))
	}

	for i := range raw {
		raw[i] = ' '
	}
	copy(raw[:BaseLength], encodedBase)
	copy(raw[BaseLength:], encodedExtension)
	return raw, nil
}

// encodePart uppercases one half of a name and converts it to the code page.
// `fullName` is only used for error messages.
func encodePart(part, fullName string) ([]byte, error) {
	encoded := make([]byte, 0, len(part))
	for _, r := range strings.ToUpper(part) {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(forbiddenCharacters, r) {
			return nil, errors.ErrInvalidArgument.WithMessage(
				fmt.Sprintf("file name %q contains invalid character %q", fullName, r))
		}

		b, ok := codePage.EncodeRune(r)
		if !ok {
			b = substituteByte
		}
		encoded = append(encoded, b)
	}
	return encoded, nil
}

// Decode converts an on-disk name into its user-friendly form, putting the dot
// back in if the name has an extension.
func Decode(raw RawName) string {
	base := decodePart(raw[:BaseLength])
	extension := decodePart(raw[BaseLength:])

	if extension == "" {
		return base
	}
	return base + "." + extension
}

func decodePart(data []byte) string {
	end := len(data)
	for end > 0 && data[end-1] == ' ' {
		end--
	}

	var builder strings.Builder
	for _, b := range data[:end] {
		builder.WriteRune(codePage.DecodeByte(b))
	}
	return builder.String()
}

// Canonical returns the form `name` will have when read back from the disk.
func Canonical(name string) (string, error) {
	raw, err := Encode(name)
	if err != nil {
		return "", err
	}
	return Decode(raw), nil
}

// Equal compares two on-disk names, ignoring the case of ASCII letters.
func Equal(left, right RawName) bool {
	for i := range left {
		if toUpperASCII(left[i]) != toUpperASCII(right[i]) {
			return false
		}
	}
	return true
}

func toUpperASCII(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// FromBytes copies the first [Length] bytes of `data` into a RawName.
func FromBytes(data []byte) RawName {
	var raw RawName
	copy(raw[:], data)
	return raw
}
