// Package mmap maps archive files read-only into memory.
//
// Archives are opened once and then read from many ingestion workers at
// random offsets (directory entries, pointer tables, clusters). A shared
// read-only mapping gives every worker positional, zero-copy access with no
// cursor state.
//
//	m, err := mmap.Open("wikipedia_en_medicine.zim")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessRandom)
//	header := m.Bytes()[:80]
//
// On Unix the mapping uses mmap(2) and madvise(2); on Windows it uses
// CreateFileMapping/MapViewOfFile and Advise is a no-op.
//
// Close is idempotent. Slices obtained from Bytes or Slice must not be used
// after Close returns.
package mmap
