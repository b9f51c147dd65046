// Package storage locates the workout catalog document. A catalog can live on
// local disk or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrObjectNotFound is returned when the catalog document does not exist.
var ErrObjectNotFound = errors.New("catalog object not found")

// CatalogSource opens the raw catalog document for reading.
type CatalogSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Location names the source in logs.
	Location() string
}

type fileSource struct {
	path string
}

// NewFileSource reads the catalog from a local path.
func NewFileSource(path string) CatalogSource {
	return &fileSource{path: path}
}

func (f *fileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, f.path)
		}
		return nil, err
	}
	return file, nil
}

func (f *fileSource) Location() string { return f.path }

// ParseS3URL splits s3://bucket/key. ok is false for anything else.
func ParseS3URL(location string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(location, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
