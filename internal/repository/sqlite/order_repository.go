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

const (
	createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_name TEXT NOT NULL,
	total_amount REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'preparing',
	table_number INTEGER NULL,
	payment_method TEXT NOT NULL DEFAULT '',
	order_type TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

	createOrderLinesTable = `
CREATE TABLE IF NOT EXISTS order_lines (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id INTEGER NOT NULL,
	menu_item_id INTEGER NULL,
	name TEXT NOT NULL,
	unit_price REAL NOT NULL DEFAULT 0,
	quantity INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY(order_id) REFERENCES orders(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_order_lines_order_id ON order_lines(order_id);
`
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createOrdersTable); err != nil {
		return fmt.Errorf("create orders table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createOrderLinesTable); err != nil {
		return fmt.Errorf("create order_lines table: %w", err)
	}
	return nil
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) (int64, error) {
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	res, err := tx.ExecContext(ctx, `
INSERT INTO orders (customer_name, total_amount, status, table_number, payment_method, order_type, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		order.CustomerName,
		order.TotalAmount,
		string(order.Status),
		nullInt(order.TableNumber),
		order.PaymentMethod,
		order.OrderType,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("order last insert id: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = id
		lineRes, err := tx.ExecContext(ctx, `
INSERT INTO order_lines (order_id, menu_item_id, name, unit_price, quantity)
VALUES (?, ?, ?, ?, ?)`,
			id,
			nullInt64(line.MenuItemID),
			line.Name,
			line.UnitPrice,
			line.Quantity,
		)
		if err != nil {
			return 0, fmt.Errorf("insert order line: %w", err)
		}
		if line.ID, err = lineRes.LastInsertId(); err != nil {
			return 0, fmt.Errorf("order line last insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit order: %w", err)
	}
	order.ID = id
	return id, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders
SET status=?, updated_at=?
WHERE id=?`,
		string(status),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("order status rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, customer_name, total_amount, status, table_number, payment_method, order_type, created_at, updated_at
FROM orders
WHERE id=?`,
		id,
	)

	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	lines, err := r.listLines(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return order, nil
}

func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, customer_name, total_amount, status, table_number, payment_method, order_type, created_at, updated_at
FROM orders
ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		lines, err := r.listLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}

	return orders, nil
}

func (r *OrderRepository) listLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, order_id, menu_item_id, name, unit_price, quantity
FROM order_lines
WHERE order_id=?
ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var (
			line       domain.OrderLine
			menuItemID sql.NullInt64
		)
		if err := rows.Scan(&line.ID, &line.OrderID, &menuItemID, &line.Name, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		if menuItemID.Valid {
			v := menuItemID.Int64
			line.MenuItemID = &v
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func scanOrder(scanner interface {
	Scan(dest ...any) error
}) (*domain.Order, error) {
	var (
		order       domain.Order
		status      string
		tableNumber sql.NullInt64
	)
	if err := scanner.Scan(
		&order.ID,
		&order.CustomerName,
		&order.TotalAmount,
		&status,
		&tableNumber,
		&order.PaymentMethod,
		&order.OrderType,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	if tableNumber.Valid {
		v := int(tableNumber.Int64)
		order.TableNumber = &v
	}
	return &order, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
