// Package storage holds the binary object stores behind recordings and
// employee documents.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound      = errors.New("storage: object not found")
	ErrInvalidHandle = errors.New("storage: invalid handle")
)

type ObjectInfo struct {
	Name        string
	ContentType string
	Metadata    map[string]string
}

// Object is an open payload. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	Name        string
	ContentType string
}

//go:generate mockgen -source=storage.go -destination=mock/storage_mock.go -package=mock
type ObjectStore interface {
	// Put streams r into the store and returns an opaque handle.
	Put(ctx context.Context, r io.Reader, info ObjectInfo) (handle string, size int64, err error)
	Open(ctx context.Context, handle string) (*Object, error)
	Delete(ctx context.Context, handle string) error
}
