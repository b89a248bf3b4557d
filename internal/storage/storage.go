package storage

import (
	"context"
	"io"
)

// Service stores uploaded menu images and resolves the public URL they are
// served from. Implementations save by name and serve by name; callers are
// responsible for choosing collision-free names.
type Service interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
	PublicURL(name string) string
}
