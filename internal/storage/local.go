package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalService stores images on the local filesystem and serves them from a
// public path on the same server.
type LocalService struct {
	root    string
	baseURL string
}

func NewLocalService(root, baseURL string) (*LocalService, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &LocalService{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Root returns the directory files are stored in, for static file serving.
func (s *LocalService) Root() string {
	return s.root
}

func (s *LocalService) Save(_ context.Context, name string, r io.Reader, _ string) (string, error) {
	name = filepath.Base(name)
	f, err := os.Create(filepath.Join(s.root, name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}
	return name, nil
}

func (s *LocalService) Delete(_ context.Context, name string) error {
	name = filepath.Base(name)
	if err := os.Remove(filepath.Join(s.root, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}

func (s *LocalService) PublicURL(name string) string {
	return s.baseURL + "/" + filepath.Base(name)
}

var _ Service = (*LocalService)(nil)
