// Package storage is the blob-storage adapter for lease documents. Callers see
// only upload-returns-public-URL and remove.
package storage

import "context"

// BlobStore stores opaque files under a caller-chosen path.
type BlobStore interface {
	// Upload stores data at path and returns the URL clients fetch it from.
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
	// Remove deletes the object at path. Removing a missing object is not an error.
	Remove(ctx context.Context, path string) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinIOPublicBaseURL() string
	GetMinioBucketLeaseAttachments() string
	IsMinIOEnabled() bool
}
