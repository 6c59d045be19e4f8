// Package s3 provides an fspath.Device for S3-compatible object stores,
// built on the MinIO client.
//
// Paths take the form "s3://bucket/key". The host is the bucket, so one
// device serves every bucket its credentials can reach:
//
//	dev, err := s3.New(s3.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	})
//	if err != nil {
//	    return err
//	}
//	if err := fspath.Init(dev); err != nil {
//	    return err
//	}
//
//	data, err := fspath.FromString("s3://artifacts/build/app.tar").ReadContents(ctx)
//
// # Object Store Semantics
//
// Directories are virtual. A directory exists while at least one key has
// it as a prefix, CreateDir only checks that the bucket exists, and writes
// never need parent directories. Removing a missing object succeeds.
// Permissions, free space and symbolic links are not available.
//
// Renaming is copy followed by delete and is not atomic. Directory renames
// copy objects in parallel, bounded by Config.MaxConcurrency.
//
// # Asynchronous Transfers
//
// Device implements fspath.AsyncDevice. Asynchronous reads, writes and
// copies share a pool of Config.MaxConcurrency transfer slots.
package s3
