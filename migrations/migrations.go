package migrations

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Tables are listed parents first so foreign keys resolve.
var tables = []struct {
	name  string
	query string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) NOT NULL,
			hashed_password VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			role VARCHAR(20) NOT NULL DEFAULT 'customer',
			phone_number VARCHAR(32) NULL,
			age INT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{"products", `
		CREATE TABLE IF NOT EXISTS products (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			quantity_in_stock INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (quantity_in_stock >= 0)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{"discount_codes", `
		CREATE TABLE IF NOT EXISTS discount_codes (
			id INT AUTO_INCREMENT PRIMARY KEY,
			code VARCHAR(20) NOT NULL UNIQUE,
			discount_percentage INT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			expiry_date DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{"orders", `
		CREATE TABLE IF NOT EXISTS orders (
			id INT AUTO_INCREMENT PRIMARY KEY,
			owner_id INT NOT NULL,
			order_date DATETIME NOT NULL,
			status VARCHAR(20) NOT NULL,
			total_price DECIMAL(12,2) NOT NULL,
			discount_applied DECIMAL(12,2) NOT NULL DEFAULT 0,
			discount_code_id INT NULL,
			INDEX idx_orders_owner_date (owner_id, order_date),
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE RESTRICT,
			FOREIGN KEY (discount_code_id) REFERENCES discount_codes(id) ON DELETE SET NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
	{"order_items", `
		CREATE TABLE IF NOT EXISTS order_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id INT NOT NULL,
			product_id INT NOT NULL,
			quantity INT NOT NULL,
			unit_price DECIMAL(10,2) NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
			FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`},
}

// AutoMigrate creates every table that does not exist yet. Each statement is retried
// once a second while the database is still starting up.
func AutoMigrate(retries int, db *sql.DB) error {
	for _, table := range tables {
		_, err := db.Exec(table.query)
		for i := 0; err != nil && i < retries; i++ {
			log.Warn().Err(err).Msgf("Creating table %s failed, retrying (%d/%d)", table.name, i+1, retries)
			time.Sleep(1 * time.Second)
			_, err = db.Exec(table.query)
		}
		if err != nil {
			return fmt.Errorf("migrate %s: %w", table.name, err)
		}
	}
	return nil
}
