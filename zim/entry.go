package zim

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Mimetype sentinels stored in place of a mimetype index.
const (
	MimeRedirect   uint16 = 0xFFFF
	MimeLinkTarget uint16 = 0xFFFE
	MimeDeleted    uint16 = 0xFFFD
)

// Namespaces holding articles. New-style archives use C; older ones use A.
const (
	NamespaceContent    byte = 'C'
	NamespaceArticle    byte = 'A'
	NamespaceMetadata   byte = 'M'
	NamespaceWellKnown  byte = 'W'
	NamespaceTitleIndex byte = 'X'
)

// Entry is a decoded directory entry.
type Entry struct {
	// Index is the entry's position in the URL pointer table.
	Index     uint32
	MimeIndex uint16
	Namespace byte
	Revision  uint32

	// Cluster and Blob locate the content; zero for non-content entries.
	Cluster uint32
	Blob    uint32

	// RedirectIndex is the URL-table index of the redirect target.
	RedirectIndex uint32

	Path  string
	Title string

	// Offset is the file position of the record.
	Offset uint64
}

// IsRedirect reports whether the entry is a redirect.
func (e Entry) IsRedirect() bool { return e.MimeIndex == MimeRedirect }

// HasContent reports whether the entry references a blob.
func (e Entry) HasContent() bool { return e.MimeIndex < MimeDeleted }

// IsArticle reports whether the entry lives in an article namespace.
func (e Entry) IsArticle() bool {
	return e.Namespace == NamespaceContent || e.Namespace == NamespaceArticle
}

// FullPath returns "<namespace>/<path>".
func (e Entry) FullPath() string {
	return string([]byte{e.Namespace, '/'}) + e.Path
}

func (e Entry) String() string {
	return fmt.Sprintf("#%d %s", e.Index, e.FullPath())
}

// errShortRecord signals that the read window ended inside the record.
var errShortRecord = errors.New("zim: short directory record")

// decodeEntry decodes one directory record from b. It returns
// errShortRecord when b ends before the record does.
func decodeEntry(b []byte, offset uint64) (Entry, error) {
	const fixed = 8
	if len(b) < fixed {
		return Entry{}, errShortRecord
	}

	le := binary.LittleEndian
	e := Entry{
		MimeIndex: le.Uint16(b[0:2]),
		Namespace: b[3],
		Revision:  le.Uint32(b[4:8]),
		Offset:    offset,
	}
	paramLen := int(b[2])
	p := fixed

	switch e.MimeIndex {
	case MimeRedirect:
		if len(b) < p+4 {
			return Entry{}, errShortRecord
		}
		e.RedirectIndex = le.Uint32(b[p:])
		p += 4
	case MimeLinkTarget, MimeDeleted:
	default:
		if len(b) < p+8 {
			return Entry{}, errShortRecord
		}
		e.Cluster = le.Uint32(b[p:])
		e.Blob = le.Uint32(b[p+4:])
		p += 8
	}

	path, n := cstring(b[p:])
	if n < 0 {
		return Entry{}, errShortRecord
	}
	p += n

	title, n := cstring(b[p:])
	if n < 0 {
		return Entry{}, errShortRecord
	}
	p += n

	if len(b) < p+paramLen {
		return Entry{}, errShortRecord
	}

	e.Path = path
	e.Title = title
	if e.Title == "" {
		e.Title = e.Path
	}
	return e, nil
}

// cstring returns the NUL-terminated string at the start of b and the
// number of bytes consumed, or -1 if no terminator is present.
func cstring(b []byte) (string, int) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", -1
	}
	return string(b[:i]), i + 1
}

// compareKey orders entries by namespace, then by the given string.
func compareKey(ns byte, s string, wantNS byte, want string) int {
	switch {
	case ns < wantNS:
		return -1
	case ns > wantNS:
		return 1
	}
	switch {
	case s < want:
		return -1
	case s > want:
		return 1
	}
	return 0
}
