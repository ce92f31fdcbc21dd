// Package minio provides a BlobStore backed by MinIO or any other
// S3-compatible service (Ceph, Garage, SeaweedFS).
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "wikis", "graphs/")
//
// For the common case of static credentials, New builds the client.
package minio
