package config

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	// Create users table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create waste_reports table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS waste_reports (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			location VARCHAR(255) NOT NULL,
			waste_type VARCHAR(50) NOT NULL,
			waste_size VARCHAR(10) NOT NULL,
			photo_url TEXT,
			status VARCHAR(10) NOT NULL,
			verify_label VARCHAR(100) NOT NULL DEFAULT '',
			verify_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create user_tokens table (one account per user)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS user_tokens (
			user_id VARCHAR(36) PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			level INT NOT NULL DEFAULT 1,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create token_transactions table (append-only ledger)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS token_transactions (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount BIGINT NOT NULL CHECK (amount > 0),
			kind VARCHAR(10) NOT NULL,
			source_type VARCHAR(30) NOT NULL,
			description TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create admin_users table (explicit admin memberships)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS admin_users (
			user_id VARCHAR(36) PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create rewards table (redeemable catalog)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS rewards (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			cost BIGINT NOT NULL CHECK (cost > 0),
			stock INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create collection_events table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS collection_events (
			id VARCHAR(36) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			location VARCHAR(255) NOT NULL,
			event_date TIMESTAMP NOT NULL,
			status VARCHAR(10) NOT NULL,
			created_by VARCHAR(36) NOT NULL REFERENCES users(id),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Authorization procedure callable by name, independent of the table
	// CRUD surface (resolver tier 3).
	_, err = db.Exec(`
		CREATE OR REPLACE FUNCTION is_admin(uid VARCHAR) RETURNS BOOLEAN AS $$
			SELECT EXISTS(SELECT 1 FROM admin_users WHERE user_id = uid)
		$$ LANGUAGE sql STABLE
	`)
	if err != nil {
		return err
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_waste_reports_user_id ON waste_reports(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_waste_reports_created ON waste_reports(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_token_transactions_user_id ON token_transactions(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_user_tokens_balance ON user_tokens(balance DESC)",
		"CREATE INDEX IF NOT EXISTS idx_collection_events_date ON collection_events(event_date ASC)",
	}

	for _, idx := range indexes {
		_, err = db.Exec(idx)
		if err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
