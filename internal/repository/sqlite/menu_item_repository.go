package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gendai-ordering/internal/domain"
	"gendai-ordering/internal/repository"
)

const createMenuItemsTable = `
CREATE TABLE IF NOT EXISTS menu_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price REAL NOT NULL DEFAULT 0,
	category TEXT NOT NULL DEFAULT '',
	image TEXT NOT NULL DEFAULT '',
	available INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type MenuItemRepository struct {
	db *sql.DB
}

func NewMenuItemRepository(db *sql.DB) repository.MenuItemRepository {
	return &MenuItemRepository{db: db}
}

func (r *MenuItemRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createMenuItemsTable); err != nil {
		return fmt.Errorf("create menu_items table: %w", err)
	}
	return nil
}

func (r *MenuItemRepository) Create(ctx context.Context, item *domain.MenuItem) (int64, error) {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO menu_items (name, description, price, category, image, available, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name,
		item.Description,
		item.Price,
		item.Category,
		item.Image,
		item.Available,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert menu item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("menu item last insert id: %w", err)
	}
	item.ID = id
	return id, nil
}

func (r *MenuItemRepository) Update(ctx context.Context, item *domain.MenuItem) error {
	item.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE menu_items
SET name=?, description=?, price=?, category=?, image=?, available=?, updated_at=?
WHERE id=?`,
		item.Name,
		item.Description,
		item.Price,
		item.Category,
		item.Image,
		item.Available,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("menu item update rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MenuItemRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("menu item delete rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MenuItemRepository) Get(ctx context.Context, id int64) (*domain.MenuItem, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, description, price, category, image, available, created_at, updated_at
FROM menu_items
WHERE id=?`,
		id,
	)
	return scanMenuItem(row)
}

func (r *MenuItemRepository) List(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, description, price, category, image, available, created_at, updated_at
FROM menu_items
ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

func scanMenuItem(scanner interface {
	Scan(dest ...any) error
}) (*domain.MenuItem, error) {
	var item domain.MenuItem
	if err := scanner.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.Category,
		&item.Image,
		&item.Available,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan menu item: %w", err)
	}
	return &item, nil
}
