package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"

	"gendai-ordering/internal/domain"
	"gendai-ordering/internal/repository"
	"gendai-ordering/internal/storage"
)

// ErrMenuItemNotFound is returned when a catalog id does not resolve.
var ErrMenuItemNotFound = errors.New("menu item not found")

// ImageUpload describes an uploaded image file to store alongside a menu item.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// MenuItemInput carries the fields of a new catalog entry.
type MenuItemInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Available   bool
}

// MenuItemUpdate carries a partial update; nil fields are left unchanged.
type MenuItemUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Available   *bool
	// Image carries a pass-through image reference when no new file is
	// uploaded (editing without changing the picture).
	Image *string
}

// MenuService owns catalog CRUD and image storage plumbing.
type MenuService interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	Get(ctx context.Context, id int64) (*domain.MenuItem, error)
	Create(ctx context.Context, input MenuItemInput, image *ImageUpload) (*domain.MenuItem, error)
	Update(ctx context.Context, id int64, update MenuItemUpdate, image *ImageUpload) (*domain.MenuItem, error)
	Delete(ctx context.Context, id int64) error
	ImageURL(name string) string
}

type menuService struct {
	menu   repository.MenuItemRepository
	images storage.Service
}

func NewMenuService(menu repository.MenuItemRepository, images storage.Service) MenuService {
	return &menuService{
		menu:   menu,
		images: images,
	}
}

func (s *menuService) List(ctx context.Context) ([]domain.MenuItem, error) {
	return s.menu.List(ctx)
}

func (s *menuService) Get(ctx context.Context, id int64) (*domain.MenuItem, error) {
	item, err := s.menu.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *menuService) Create(ctx context.Context, input MenuItemInput, image *ImageUpload) (*domain.MenuItem, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	item := &domain.MenuItem{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Available:   input.Available,
	}

	if image != nil {
		stored, err := s.storeImage(ctx, image)
		if err != nil {
			return nil, err
		}
		item.Image = stored
	}

	if _, err := s.menu.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *menuService) Update(ctx context.Context, id int64, update MenuItemUpdate, image *ImageUpload) (*domain.MenuItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		item.Name = *update.Name
	}
	if update.Description != nil {
		item.Description = *update.Description
	}
	if update.Price != nil {
		item.Price = *update.Price
	}
	if update.Category != nil {
		item.Category = *update.Category
	}
	if update.Available != nil {
		item.Available = *update.Available
	}

	switch {
	case image != nil:
		stored, err := s.storeImage(ctx, image)
		if err != nil {
			return nil, err
		}
		item.Image = stored
	case update.Image != nil && *update.Image != "":
		item.Image = *update.Image
	}

	if err := s.menu.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *menuService) Delete(ctx context.Context, id int64) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.menu.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMenuItemNotFound
		}
		return err
	}

	// best effort: an orphaned image is not worth failing the delete
	if item.Image != "" {
		_ = s.images.Delete(ctx, item.Image)
	}
	return nil
}

func (s *menuService) ImageURL(name string) string {
	if name == "" {
		return ""
	}
	return s.images.PublicURL(name)
}

// storeImage writes the upload under a collision-free name derived from the
// original filename's extension.
func (s *menuService) storeImage(ctx context.Context, image *ImageUpload) (string, error) {
	name := uuid.NewString() + filepath.Ext(image.Filename)
	stored, err := s.images.Save(ctx, name, image.Reader, image.ContentType)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return stored, nil
}
