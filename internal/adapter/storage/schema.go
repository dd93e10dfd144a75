package storage

import (
	"context"
	"fmt"
)

// Schema is created at startup with IF NOT EXISTS so no external migration
// tool is needed. Statements are kept per dialect because auto-increment
// syntax differs between MySQL and SQLite.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		unit_price INTEGER NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		total INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		product_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price INTEGER NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		unit_price BIGINT NOT NULL,
		stock INT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) PRIMARY KEY,
		total BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		order_id CHAR(36) NOT NULL,
		product_id BIGINT NOT NULL,
		quantity INT NOT NULL,
		unit_price BIGINT NOT NULL,
		KEY idx_order_items_order (order_id)
	)`,
}

// InitSchema creates the tables if they are missing.
func (s *SQLStore) InitSchema(ctx context.Context) error {
	var stmts []string
	switch s.driver {
	case DriverSQLite:
		stmts = sqliteSchema
	case DriverMySQL:
		stmts = mysqlSchema
	default:
		return fmt.Errorf("unsupported driver %q", s.driver)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
