package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when the bucket has no object under the key.
var ErrObjectNotFound = errors.New("object not found")

// PutOptions describes upload options for object storage.
type PutOptions struct {
	ContentType string
}

// CopySource describes a source object for server-side copy.
type CopySource struct {
	Bucket string
	Object string
}

// CopyDest describes a destination object for server-side copy.
type CopyDest struct {
	Bucket string
	Object string
}

// ObjectInfo is the metadata the store keeps for an object.
type ObjectInfo struct {
	ObjectName   string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store abstracts object storage operations.
type Store interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutOptions) error
	GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, ObjectInfo, error)
	StatObject(ctx context.Context, bucket, object string) (ObjectInfo, error)
	CopyObject(ctx context.Context, dest CopyDest, src CopySource) error
	RemoveObject(ctx context.Context, bucket, object string) error
}

// Default is the main object store instance.
var Default Store
