// Package filestore defines the read-only interface for fetching documents
// from object storage. JoinPilot uses it to pull centrally managed
// virtual-reference documents at startup.
//
// All providers (MinIO, S3-compatible, …) implement the Store interface.
// Callers depend only on this package — never on a specific provider.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	obj, err := store.GetObject(ctx, "schema-hints", "prod/refs.yaml")
package filestore

import "context"

// Store is the single interface all object storage providers must
// implement. Scoped to GET (read) operations only.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources (connections, goroutines, etc.).
	Close() error

	// GetObject opens a streaming handle to the object at key inside bucket.
	// The caller MUST call Object.Close() after reading.
	GetObject(ctx context.Context, bucket, key string) (Object, error)

	// StatObject returns metadata for the object at key inside bucket
	// without downloading its content.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}
