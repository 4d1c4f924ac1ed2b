package storage

import (
	"context"
	"io"
)

// Object describes a stored upload.
type Object struct {
	Key         string
	URL         string
	Size        int64
	ContentType string
}

// ObjectStore persists uploaded files and reports where clients can fetch them.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error)
	Remove(ctx context.Context, key string) error
}
