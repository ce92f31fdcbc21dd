// Package persistence saves and loads graph sessions.
//
// A session is three blobs in a blobstore.BlobStore:
//
//	wiki-interner   the interned vocabulary; key i is the i-th string
//	wiki-graph      the key-to-Page mapping
//	wiki-manifest   CBOR manifest binding both artifacts to one archive
//
// Each artifact starts with a 24-byte little-endian header:
//
//	Magic          (4 bytes)
//	Version        (4 bytes)
//	Compression    (1 byte) + padding (3 bytes)
//	Checksum       (4 bytes) CRC32 of the stored payload
//	PayloadLength  (4 bytes) stored bytes following the header
//	RawLength      (4 bytes) payload length after decompression
//
// The manifest is written last and records BLAKE3 digests of both
// artifacts, so a half-written session is detected on load. Loading is
// all-or-nothing: any mismatch fails the whole load.
package persistence
