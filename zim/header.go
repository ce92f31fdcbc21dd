package zim

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

const (
	// Magic is the little-endian magic number at offset 0.
	Magic uint32 = 0x044D495A

	// HeaderSize is the size of the fixed header in bytes.
	HeaderSize = 80

	// NoPage marks an absent main or layout page.
	NoPage uint32 = 0xFFFFFFFF

	minMajor = 5
	maxMajor = 6
)

// Header is the fixed archive header.
type Header struct {
	MajorVersion  uint16
	MinorVersion  uint16
	UUID          uuid.UUID
	EntryCount    uint32
	ClusterCount  uint32
	URLPtrPos     uint64
	TitlePtrPos   uint64
	ClusterPtrPos uint64
	MimeListPos   uint64
	MainPage      uint32
	LayoutPage    uint32
	ChecksumPos   uint64
}

// HasMainPage reports whether the header designates a main page.
func (h Header) HasMainPage() bool {
	return h.MainPage != NoPage && h.MainPage < h.EntryCount
}

// ParseHeader decodes and validates the fixed header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header truncated (%d bytes)", ErrInvalidFormat, len(b))
	}

	le := binary.LittleEndian
	if magic := le.Uint32(b[0:4]); magic != Magic {
		return Header{}, fmt.Errorf("%w: bad magic 0x%08x", ErrInvalidFormat, magic)
	}

	h := Header{
		MajorVersion:  le.Uint16(b[4:6]),
		MinorVersion:  le.Uint16(b[6:8]),
		EntryCount:    le.Uint32(b[24:28]),
		ClusterCount:  le.Uint32(b[28:32]),
		URLPtrPos:     le.Uint64(b[32:40]),
		TitlePtrPos:   le.Uint64(b[40:48]),
		ClusterPtrPos: le.Uint64(b[48:56]),
		MimeListPos:   le.Uint64(b[56:64]),
		MainPage:      le.Uint32(b[64:68]),
		LayoutPage:    le.Uint32(b[68:72]),
		ChecksumPos:   le.Uint64(b[72:80]),
	}
	copy(h.UUID[:], b[8:24])

	if h.MajorVersion < minMajor || h.MajorVersion > maxMajor {
		return Header{}, &UnsupportedVersionError{Major: h.MajorVersion, Minor: h.MinorVersion}
	}

	return h, nil
}

// validate checks the table positions against the archive size.
func (h Header) validate(size int64) error {
	end := uint64(size)
	check := func(name string, pos, length uint64) error {
		if pos < HeaderSize || pos > end || length > end-pos {
			return fmt.Errorf("%w: %s [%d, +%d) outside archive of %d bytes", ErrInvalidFormat, name, pos, length, size)
		}
		return nil
	}
	if err := check("mime list", h.MimeListPos, 1); err != nil {
		return err
	}
	if err := check("url pointers", h.URLPtrPos, uint64(h.EntryCount)*8); err != nil {
		return err
	}
	if err := check("title pointers", h.TitlePtrPos, uint64(h.EntryCount)*4); err != nil {
		return err
	}
	if err := check("cluster pointers", h.ClusterPtrPos, uint64(h.ClusterCount)*8); err != nil {
		return err
	}
	if h.ChecksumPos != 0 && h.ChecksumPos > end {
		return fmt.Errorf("%w: checksum position %d beyond archive", ErrInvalidFormat, h.ChecksumPos)
	}
	return nil
}
