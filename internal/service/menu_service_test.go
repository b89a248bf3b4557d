package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gendai-ordering/internal/storage"
)

type fakeImageStore struct {
	saved   map[string]string
	deleted []string
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{saved: map[string]string{}}
}

func (s *fakeImageStore) Save(_ context.Context, name string, r io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[name] = string(data)
	return name, nil
}

func (s *fakeImageStore) Delete(_ context.Context, name string) error {
	s.deleted = append(s.deleted, name)
	delete(s.saved, name)
	return nil
}

func (s *fakeImageStore) PublicURL(name string) string {
	return "/images/" + name
}

var _ storage.Service = (*fakeImageStore)(nil)

func newTestMenuService(t *testing.T) (MenuService, *fakeMenuRepo, *fakeImageStore) {
	t.Helper()
	repo := newFakeMenuRepo()
	images := newFakeImageStore()
	return NewMenuService(repo, images), repo, images
}

func TestMenuService_Create_StoresImageUnderFreshName(t *testing.T) {
	svc, _, images := newTestMenuService(t)

	item, err := svc.Create(context.Background(), MenuItemInput{
		Name:      "Tonkotsu Ramen",
		Price:     100,
		Category:  "mains",
		Available: true,
	}, &ImageUpload{
		Filename:    "photo.jpg",
		ContentType: "image/jpeg",
		Size:        4,
		Reader:      strings.NewReader("jpeg"),
	})
	require.NoError(t, err)
	require.NotZero(t, item.ID)

	require.NotEmpty(t, item.Image)
	assert.NotEqual(t, "photo.jpg", item.Image, "stored name must not collide with the upload name")
	assert.True(t, strings.HasSuffix(item.Image, ".jpg"), "original extension is kept")
	assert.Equal(t, "jpeg", images.saved[item.Image])
	assert.Equal(t, "/images/"+item.Image, svc.ImageURL(item.Image))
}

func TestMenuService_Create_RequiresName(t *testing.T) {
	svc, _, _ := newTestMenuService(t)

	_, err := svc.Create(context.Background(), MenuItemInput{Price: 10}, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMenuService_Update_Partial(t *testing.T) {
	svc, _, _ := newTestMenuService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, MenuItemInput{
		Name:      "Gyoza",
		Price:     45,
		Category:  "starters",
		Available: true,
	}, nil)
	require.NoError(t, err)

	price := 50.0
	available := false
	updated, err := svc.Update(ctx, item.ID, MenuItemUpdate{
		Price:     &price,
		Available: &available,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Gyoza", updated.Name, "untouched fields keep their value")
	assert.Equal(t, 50.0, updated.Price)
	assert.False(t, updated.Available)
}

func TestMenuService_Update_NotFound(t *testing.T) {
	svc, _, _ := newTestMenuService(t)

	name := "Gyoza"
	_, err := svc.Update(context.Background(), 404, MenuItemUpdate{Name: &name}, nil)
	assert.ErrorIs(t, err, ErrMenuItemNotFound)
}

func TestMenuService_Delete_RemovesStoredImage(t *testing.T) {
	svc, repo, images := newTestMenuService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, MenuItemInput{Name: "Gyoza", Price: 45}, &ImageUpload{
		Filename:    "gyoza.png",
		ContentType: "image/png",
		Size:        1,
		Reader:      strings.NewReader("x"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, item.ID))
	assert.Empty(t, repo.items)
	assert.Contains(t, images.deleted, item.Image)

	assert.ErrorIs(t, svc.Delete(ctx, item.ID), ErrMenuItemNotFound)
}

func TestMenuService_ImageURL_EmptyName(t *testing.T) {
	svc, _, _ := newTestMenuService(t)
	assert.Empty(t, svc.ImageURL(""))
}
