package persistence

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/hupe1980/zimgraph/codec"
)

// ManifestVersion is the current manifest schema version.
const ManifestVersion = 1

// Manifest binds the two artifacts of a session together.
type Manifest struct {
	Version     int       `cbor:"version" json:"version"`
	ArchiveUUID uuid.UUID `cbor:"archive_uuid" json:"archive_uuid"`
	CreatedAt   time.Time `cbor:"created_at" json:"created_at"`
	Compression string    `cbor:"compression" json:"compression"`

	Vocabulary ArtifactInfo `cbor:"vocabulary" json:"vocabulary"`
	Graph      ArtifactInfo `cbor:"graph" json:"graph"`

	Strings int `cbor:"strings" json:"strings"`
	Pages   int `cbor:"pages" json:"pages"`
	Links   int `cbor:"links" json:"links"`
}

// ArtifactInfo locates and fingerprints one artifact.
type ArtifactInfo struct {
	Name   string `cbor:"name" json:"name"`
	Size   int64  `cbor:"size" json:"size"`
	Digest []byte `cbor:"digest" json:"digest"`
}

func describe(name string, data []byte) ArtifactInfo {
	sum := blake3.Sum256(data)
	return ArtifactInfo{Name: name, Size: int64(len(data)), Digest: sum[:]}
}

// verify checks data against the recorded size and digest.
func (a ArtifactInfo) verify(data []byte) error {
	if int64(len(data)) != a.Size {
		return fmt.Errorf("%w: %s is %d bytes, manifest says %d", ErrDigestMismatch, a.Name, len(data), a.Size)
	}
	sum := blake3.Sum256(data)
	if string(sum[:]) != string(a.Digest) {
		return fmt.Errorf("%w: %s", ErrDigestMismatch, a.Name)
	}
	return nil
}

// A stored manifest is the name of its codec, a newline, and the encoded
// Manifest.
func encodeManifest(m *Manifest, c codec.Codec) ([]byte, error) {
	body, err := c.Marshal(m)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 0, len(c.Name())+1+len(body))
	b = append(b, c.Name()...)
	b = append(b, '\n')
	return append(b, body...), nil
}

func decodeManifest(b []byte) (*Manifest, error) {
	name, body, ok := bytes.Cut(b, []byte{'\n'})
	if !ok {
		return nil, fmt.Errorf("%w: manifest has no codec preamble", ErrCorrupt)
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return nil, fmt.Errorf("%w: manifest codec %q", ErrCorrupt, name)
	}
	var m Manifest
	if err := c.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", ErrCorrupt, err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("%w: manifest version %d", ErrInvalidVersion, m.Version)
	}
	return &m, nil
}
