// Errno codes follow the Linux numbering. The command line tool exits with the
// errno of a failed operation. Only the codes this module actually produces
// are defined.

package errors

import (
	"fmt"
)

type Errno int

const (
	EOK          Errno = 0
	ENOENT       Errno = 2
	EIO          Errno = 5
	EEXIST       Errno = 17
	EINVAL       Errno = 22
	ENOSPC       Errno = 28
	EDOM         Errno = 33
	ENAMETOOLONG Errno = 36
	EBADFD       Errno = 77
	ENOTSUP      Errno = 95
	EALREADY     Errno = 114
	EUCLEAN      Errno = 117
	EMEDIUMTYPE  Errno = 124
)

var ErrNotFound = New(ENOENT)
var ErrIOFailed = New(EIO)
var ErrExists = New(EEXIST)
var ErrInvalidArgument = New(EINVAL)
var ErrNoSpaceOnDevice = New(ENOSPC)
var ErrArgumentOutOfRange = New(EDOM)
var ErrNameTooLong = New(ENAMETOOLONG)
var ErrFileDescriptorBadState = New(EBADFD)
var ErrNotSupported = New(ENOTSUP)
var ErrAlreadyInProgress = New(EALREADY)
var ErrFileSystemCorrupted = New(EUCLEAN)
var ErrInvalidFileSystem = New(EMEDIUMTYPE)

var errorMessagesByCode = map[Errno]string{
	EOK:          "Success",
	ENOENT:       "No such file or directory",
	EIO:          "Input/output error",
	EEXIST:       "File exists",
	EINVAL:       "Invalid argument",
	ENOSPC:       "No space left on device",
	EDOM:         "Numerical argument out of domain",
	ENAMETOOLONG: "File name too long",
	EBADFD:       "File descriptor in bad state",
	ENOTSUP:      "Operation not supported",
	EALREADY:     "Operation already in progress",
	EUCLEAN:      "Structure needs cleaning",
	EMEDIUMTYPE:  "Wrong medium type",
}

func StrError(code Errno) string {
	message, ok := errorMessagesByCode[code]
	if ok {
		return message
	}
	return fmt.Sprintf("error %d not recognized.", int(code))
}

// String implements [fmt.Stringer].
func (code Errno) String() string {
	return StrError(code)
}
