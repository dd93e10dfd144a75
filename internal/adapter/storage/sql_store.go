package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/ndquoc/ecom-service/internal/core/domain"
	"github.com/ndquoc/ecom-service/internal/port"
)

const (
	// DriverSQLite is the pure-Go SQLite driver (modernc.org/sqlite).
	DriverSQLite = "sqlite"
	// DriverMySQL is the go-sql-driver/mysql driver. The DSN needs
	// parseTime=true so DATETIME columns scan into time.Time.
	DriverMySQL = "mysql"
)

// SQLStore implements port.Store, port.CatalogRepository and
// port.OrderRepository over a database/sql pool.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// Open connects the store. SQLite runs with a single writer connection;
// MySQL gets pool settings sized for a request-driven service.
func Open(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	switch driver {
	case DriverSQLite:
		// Single connection: SQLite allows one writer, and an in-memory
		// database lives only as long as its connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	case DriverMySQL:
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	return &SQLStore{db: db, driver: driver}, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// WithinTx runs fn in one transaction, committing on a nil return and
// rolling back on any error.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.OrderTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &sqlTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx so row helpers can be
// shared between transactional and direct access.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return getProduct(ctx, t.tx, id)
}

func (t *sqlTx) DecrementStock(ctx context.Context, id int64, quantity int) (bool, error) {
	return decrementStock(ctx, t.tx, id, quantity)
}

func (t *sqlTx) InsertOrder(ctx context.Context, order domain.Order) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (id, total, created_at)
		VALUES (?, ?, ?)`,
		order.ID, order.Total, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *sqlTx) InsertOrderItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	for _, it := range items {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES (?, ?, ?, ?)`,
			orderID, it.ProductID, it.Quantity, it.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item for product %d: %w", it.ProductID, err)
		}
	}
	return nil
}

func getProduct(ctx context.Context, q querier, id int64) (*domain.Product, error) {
	var (
		p    domain.Product
		desc sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, name, description, unit_price, stock, created_at
		FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &desc, &p.UnitPrice, &p.Stock, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	p.Description = desc.String
	return &p, nil
}

// decrementStock refuses to drive stock negative: the WHERE clause makes
// the check-and-write one atomic statement, and zero rows affected means
// insufficient stock.
func decrementStock(ctx context.Context, q querier, id int64, quantity int) (bool, error) {
	result, err := q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?
		WHERE id = ? AND stock >= ?`,
		quantity, id, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("update stock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows == 1, nil
}

// Catalog CRUD

func (s *SQLStore) CreateProduct(ctx context.Context, p *domain.Product) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO products (name, description, unit_price, stock, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.Name, nullString(p.Description), p.UnitPrice, p.Stock, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	p.ID = id
	return nil
}

func (s *SQLStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return getProduct(ctx, s.db, id)
}

// UpdateProduct applies a partial update; COALESCE keeps current values
// for fields the patch leaves nil.
func (s *SQLStore) UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			name = COALESCE(?, name),
			description = COALESCE(?, description),
			unit_price = COALESCE(?, unit_price),
			stock = COALESCE(?, stock)
		WHERE id = ?`,
		patch.Name, patch.Description, patch.UnitPrice, patch.Stock, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return getProduct(ctx, s.db, id)
}

func (s *SQLStore) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *SQLStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, unit_price, stock, created_at
		FROM products ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			p    domain.Product
			desc sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &desc, &p.UnitPrice, &p.Stock, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Description = desc.String
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// Order read-back

func (s *SQLStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, total, created_at FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.Total, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, quantity, unit_price
		FROM order_items WHERE order_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return &order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
