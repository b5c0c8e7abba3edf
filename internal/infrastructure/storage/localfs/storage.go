// Package localfs stores file blobs on the local filesystem, keyed by
// the file's archive-relative path.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"office-archive-indexer/internal/core/domain"
)

type Storage struct {
	basePath string
	bucket   string
}

func New(basePath, bucket string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if bucket == "" {
		bucket = "documents"
	}
	if err := os.MkdirAll(filepath.Join(basePath, bucket), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath, bucket: bucket}, nil
}

func (s *Storage) Upload(_ context.Context, key string, data io.Reader, _ string) (*domain.StoredObject, error) {
	path := filepath.Join(s.basePath, s.bucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return nil, fmt.Errorf("write blob file: %w", err)
	}
	return &domain.StoredObject{
		Key:    key,
		Bucket: s.bucket,
		URL:    "file://" + path,
	}, nil
}
