// Package blob stores uploaded player images behind a small S3-like interface.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// ErrNotFound is returned when a key has no blob
var ErrNotFound = errors.New("blob not found")

// PutOptions specifies optional parameters for Put
type PutOptions struct {
	ContentType string
}

// Info describes a stored blob
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// Store is the blob backend. Put replaces any existing blob at key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// DeletePrefix removes every blob under prefix and returns how many were removed
func DeletePrefix(ctx context.Context, s Store, prefix string) (int, error) {
	infos, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, info := range infos {
		if err := s.Delete(ctx, info.Key); err != nil && !errors.Is(err, ErrNotFound) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
