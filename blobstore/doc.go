// Package blobstore provides the storage abstraction for archives and
// persisted graph artifacts.
//
// BlobStore is the interface for reading and writing blobs. Implementations
// must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap reads and atomic writes
//   - MemoryStore: in-memory store for tests
//   - CachingStore: block cache in front of any other store
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Archives are read through Blob.ReadAt, so a remote archive only pays for
// the header, pointer tables and clusters it actually touches. Wrapping a
// remote store in a CachingStore keeps hot pointer-table blocks local.
package blobstore
