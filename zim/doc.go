// Package zim reads ZIM archives, the container format used for offline
// Wikipedia and other wiki dumps.
//
// An Archive is opened over any blobstore.Blob, so the same reader serves
// memory-mapped local files, in-memory fixtures and ranged reads against
// S3 or MinIO. Every read is positional: a single Archive may be shared by
// many goroutines.
//
//	a, err := zim.OpenFile(ctx, "wikipedia_en_medicine.zim")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	e, err := a.FindArticle(ctx, "Aspirin")
//	if err != nil {
//	    return err
//	}
//	body, err := a.ReadBlob(ctx, e)
//
// Supported are format versions 5 and 6, stored and XZ compressed
// clusters. Zstandard clusters are reported as UnsupportedCompressionError.
package zim
