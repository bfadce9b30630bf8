// Package storage stores generated report files.
//
// Reports are always written to the local filesystem so they can be served
// and downloaded; an S3 (or S3-compatible) store can additionally publish a
// copy and hand out its URL.
//
// # Backends
//
//   - storage/local: filesystem directory, atomic overwrite
//   - storage/s3: Amazon S3 and S3-compatible services (MinIO)
//
// Backends register themselves with RegisterFactory in init; import them for
// side effects before calling New.
//
//	report:
//	  dir: "./reports"
//	  publish:
//	    enabled: true
//	    provider: "s3"
//	    bucket: "reports"
package storage
