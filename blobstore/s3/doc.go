// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("wikis/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	g, err := zimgraph.Open(ctx, store, "wikipedia_en_top.zim")
//
// # Features
//
//   - Range reads, so only touched archive clusters are downloaded
//   - Multipart uploads for large graph artifacts
//   - CRC32C integrity checks on Put
//   - Configurable prefix for sharing a bucket
package s3
