// Package storage reads run inputs and writes run outputs by location. A
// location is either a local filesystem path or an s3://bucket/key URI.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const s3Scheme = "s3://"

// ErrUnsupportedLocation is returned for locations the store cannot serve.
var ErrUnsupportedLocation = errors.New("unsupported location")

// Store resolves locations to local files or S3 objects.
type Store struct {
	s3 S3API
}

// New returns a Store. s3Client may be nil when only local paths are used.
func New(s3Client S3API) *Store {
	return &Store{s3: s3Client}
}

// IsS3 reports whether loc is an s3:// URI.
func IsS3(loc string) bool {
	return strings.HasPrefix(loc, s3Scheme)
}

// ParseS3 splits an s3://bucket/key URI.
func ParseS3(loc string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(loc, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !IsS3(loc) || !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q is not s3://bucket/key", ErrUnsupportedLocation, loc)
	}
	return bucket, key, nil
}

// Open returns a reader for loc. The caller closes it.
func (s *Store) Open(ctx context.Context, loc string) (io.ReadCloser, error) {
	if loc == "" {
		return nil, fmt.Errorf("%w: empty location", ErrUnsupportedLocation)
	}
	if IsS3(loc) {
		bucket, key, err := ParseS3(loc)
		if err != nil {
			return nil, err
		}
		return s.getS3(ctx, bucket, key)
	}

	f, err := os.Open(loc)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", loc, err)
	}
	return f, nil
}

// Put writes data to loc, creating parent directories for local paths.
func (s *Store) Put(ctx context.Context, loc, contentType string, data []byte) error {
	if loc == "" {
		return fmt.Errorf("%w: empty location", ErrUnsupportedLocation)
	}
	if IsS3(loc) {
		bucket, key, err := ParseS3(loc)
		if err != nil {
			return err
		}
		return s.putS3(ctx, bucket, key, contentType, data)
	}

	if err := os.MkdirAll(filepath.Dir(loc), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", loc, err)
	}
	if err := os.WriteFile(loc, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", loc, err)
	}
	return nil
}

// Join appends name to a directory location, keeping S3 keys slash-separated.
func Join(dir, name string) string {
	if IsS3(dir) {
		rest := strings.TrimSuffix(strings.TrimPrefix(dir, s3Scheme), "/")
		return s3Scheme + path.Join(rest, name)
	}
	return filepath.Join(dir, name)
}
