package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

var catalogTables = []string{
	`
		CREATE TABLE IF NOT EXISTS products (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			price DECIMAL(12,2) NOT NULL,
			discount_price DECIMAL(12,2) NULL,
			images JSON NOT NULL,
			category VARCHAR(100) NOT NULL,
			stock INT NOT NULL,
			cod_available TINYINT(1) NOT NULL,
			featured TINYINT(1) NOT NULL,
			created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
			updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
			INDEX idx_products_created (created_at)
		);
	`,
	`
		CREATE TABLE IF NOT EXISTS categories (
			id CHAR(36) PRIMARY KEY,
			slug VARCHAR(100) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			description TEXT NULL,
			image_url VARCHAR(1024) NULL,
			display_order INT NOT NULL DEFAULT 0,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
			updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3)
		);
	`,
	`
		CREATE TABLE IF NOT EXISTS users (
			id CHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			display_name VARCHAR(255) NOT NULL,
			photo_url VARCHAR(1024) NOT NULL,
			role VARCHAR(20) NOT NULL,
			shipping_addresses JSON NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3)
		);
	`,
}

var orderTables = []string{
	`
		CREATE TABLE IF NOT EXISTS orders (
			id CHAR(36) PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			shipping_address JSON NOT NULL,
			payment_method VARCHAR(10) NOT NULL,
			payment_status VARCHAR(10) NOT NULL,
			order_status VARCHAR(20) NOT NULL,
			subtotal DECIMAL(12,2) NOT NULL,
			shipping_cost DECIMAL(12,2) NOT NULL,
			total DECIMAL(12,2) NOT NULL,
			gateway_order_id VARCHAR(64) NOT NULL DEFAULT '',
			gateway_payment_id VARCHAR(64) NOT NULL DEFAULT '',
			created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
			updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
			INDEX idx_orders_user (user_id),
			INDEX idx_orders_created (created_at)
		);
	`,
	`
		CREATE TABLE IF NOT EXISTS order_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id CHAR(36) NOT NULL,
			product_id CHAR(36) NOT NULL,
			product_name VARCHAR(255) NOT NULL,
			product_image VARCHAR(1024) NOT NULL,
			price DECIMAL(12,2) NOT NULL,
			quantity INT NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		);
	`,
}

// AutoMigrateCatalog creates the product, category and user tables on the
// primary database.
func AutoMigrateCatalog(retries int, db *sql.DB) error {
	return migrate(retries, catalogTables, db)
}

// AutoMigrateOrders creates the order tables on every shard.
func AutoMigrateOrders(retries int, dbs ...*sql.DB) error {
	return migrate(retries, orderTables, dbs...)
}

func migrate(retries int, queries []string, dbs ...*sql.DB) error {
	for i, db := range dbs {
		for _, query := range queries {
			_, err := db.Exec(query)
			// Retry creating the table
			for attempt := 0; err != nil && attempt < retries; attempt++ {
				time.Sleep(1 * time.Second)
				_, err = db.Exec(query)
			}
			if err != nil {
				return fmt.Errorf("migrate db %d: %w", i, err)
			}
		}
	}
	return nil
}
