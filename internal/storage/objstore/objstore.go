package objstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"iruka_console/internal/config"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"
)

// Store is the subset of the object-store surface the console needs:
// whole-object reads and writes, deletes, and pre-authorized direct-write
// URLs for the large-file upload path.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	SignedPutURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type BlobStore struct {
	bucket *blob.Bucket
	ttl    time.Duration
}

func Open(ctx context.Context, cfg config.Storage) (*BlobStore, error) {
	const op = "storage.objstore.Open"

	bucket, err := blob.OpenBucket(ctx, cfg.BucketURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewBlobStore(bucket, cfg.SignedURLTTL), nil
}

func NewBlobStore(bucket *blob.Bucket, ttl time.Duration) *BlobStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &BlobStore{bucket: bucket, ttl: ttl}
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.bucket.ReadAll(ctx, sanitizeKey(key))
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &blob.WriterOptions{ContentType: contentType}
	return s.bucket.WriteAll(ctx, sanitizeKey(key), data, opts)
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	return s.bucket.Delete(ctx, sanitizeKey(key))
}

func (s *BlobStore) SignedPutURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.ttl
	}
	return s.bucket.SignedURL(ctx, sanitizeKey(key), &blob.SignedURLOptions{
		Method: "PUT",
		Expiry: expiry,
	})
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

// sanitizeKey prevents path traversal in object keys.
func sanitizeKey(key string) string {
	key = filepath.ToSlash(key)
	key = strings.TrimLeft(key, "/")
	parts := strings.Split(key, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, "/")
}
