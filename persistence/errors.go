package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMagic is returned when an artifact has the wrong magic number.
	ErrInvalidMagic = errors.New("persistence: invalid magic number")
	// ErrInvalidVersion is returned for artifacts of an unknown format version.
	ErrInvalidVersion = errors.New("persistence: unsupported version")
	// ErrCorrupt is returned when an artifact cannot be decoded.
	ErrCorrupt = errors.New("persistence: corrupt artifact")
	// ErrDigestMismatch is returned when an artifact does not match the
	// digest recorded in the manifest.
	ErrDigestMismatch = errors.New("persistence: digest mismatch")
	// ErrArchiveMismatch is returned when a session was built from a
	// different archive than the one expected.
	ErrArchiveMismatch = errors.New("persistence: archive mismatch")
)

// ChecksumMismatchError is returned when an artifact payload fails its
// CRC32 check.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("persistence: checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// Unwrap makes checksum failures match ErrCorrupt.
func (e *ChecksumMismatchError) Unwrap() error { return ErrCorrupt }

// IsChecksumMismatch reports whether err is a checksum mismatch.
func IsChecksumMismatch(err error) bool {
	var target *ChecksumMismatchError
	return errors.As(err, &target)
}
