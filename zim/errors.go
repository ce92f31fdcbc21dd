package zim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is returned for a bad magic number or a truncated
	// or inconsistent header.
	ErrInvalidFormat = errors.New("zim: invalid format")

	// ErrUnsupportedVersion is matched by *UnsupportedVersionError.
	ErrUnsupportedVersion = errors.New("zim: unsupported version")

	// ErrOutOfRange is returned for an entry or title index beyond the
	// archive's entry count.
	ErrOutOfRange = errors.New("zim: index out of range")

	// ErrInvalidEntry is returned when a directory entry cannot be decoded
	// or does not reference a readable blob.
	ErrInvalidEntry = errors.New("zim: invalid entry")

	// ErrUnsupportedCompression is matched by *UnsupportedCompressionError.
	ErrUnsupportedCompression = errors.New("zim: unsupported compression")

	// ErrNotFound is returned when no entry matches a path or title.
	ErrNotFound = errors.New("zim: entry not found")

	// ErrChecksumMismatch is returned by Verify.
	ErrChecksumMismatch = errors.New("zim: checksum mismatch")

	// ErrClosed is returned by reads on a closed archive.
	ErrClosed = errors.New("zim: archive closed")
)

// UnsupportedVersionError reports a major version outside 5..6.
type UnsupportedVersionError struct {
	Major uint16
	Minor uint16
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("zim: unsupported version %d.%d", e.Major, e.Minor)
}

func (e *UnsupportedVersionError) Unwrap() error { return ErrUnsupportedVersion }

// UnsupportedCompressionError reports the codec nibble of a cluster that
// cannot be decompressed.
type UnsupportedCompressionError struct {
	Code uint8
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("zim: unsupported cluster compression %d (%s)", e.Code, Compression(e.Code))
}

func (e *UnsupportedCompressionError) Unwrap() error { return ErrUnsupportedCompression }
