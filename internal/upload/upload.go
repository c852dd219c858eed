package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrInvalidUpload covers every pre-transfer rejection: disallowed content
// type or an oversized payload. Validation happens before any bytes move so
// a doomed upload wastes no transfer.
var ErrInvalidUpload = errors.New("invalid upload")

// allowedTypes maps accepted image content types to their file extension.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store is the blob upload contract: given bytes and a declared content
// type, return a stable, fetchable URL or an error.
type Store interface {
	Save(ctx context.Context, name string, content []byte, contentType string) (string, error)
}

// Validate checks the declared content type and size against policy.
func Validate(contentType string, size int64, maxBytes int64) error {
	if _, ok := allowedTypes[contentType]; !ok {
		return fmt.Errorf("%w: content type %q not allowed", ErrInvalidUpload, contentType)
	}
	if size <= 0 {
		return fmt.Errorf("%w: empty content", ErrInvalidUpload)
	}
	if size > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrInvalidUpload, size, maxBytes)
	}
	return nil
}

// Service validates media and hands it to the configured Store.
type Service struct {
	store    Store
	maxBytes int64
}

// NewService creates an upload Service with the given size cap in bytes.
func NewService(store Store, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &Service{store: store, maxBytes: maxBytes}
}

// Upload validates and stores the content, returning its public URL.
// Objects get opaque uuid names; the original filename is only a hint and
// never trusted.
func (s *Service) Upload(ctx context.Context, content []byte, contentType string) (string, error) {
	if err := Validate(contentType, int64(len(content)), s.maxBytes); err != nil {
		return "", err
	}
	name := uuid.NewString() + allowedTypes[contentType]
	return s.store.Save(ctx, name, content, contentType)
}

// DiskStore is a local-filesystem Store for single-node deployments and
// development. Saved objects resolve under urlPrefix.
type DiskStore struct {
	dir       string
	urlPrefix string
}

// NewDiskStore creates the directory if needed.
func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir, urlPrefix: urlPrefix}, nil
}

// Save writes the object and returns its URL path.
func (d *DiskStore) Save(_ context.Context, name string, content []byte, _ string) (string, error) {
	if err := os.WriteFile(filepath.Join(d.dir, name), content, 0o644); err != nil {
		return "", err
	}
	return path.Join(d.urlPrefix, name), nil
}
