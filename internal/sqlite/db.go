package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers anyway; one pooled connection also
	// keeps :memory: databases shared across the pool.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations runs the migrations directly (for testing)
// In production, migrations are applied from the embedded migrations package.
func (db *DB) RunMigrations() error {
	migration := `
-- Letters table. position keeps the archive's prepend ordering:
-- smaller position = newer record.
CREATE TABLE letters (
    id TEXT PRIMARY KEY,
    letter_number TEXT NOT NULL,
    sequence INTEGER NOT NULL,
    date TEXT NOT NULL,
    year INTEGER NOT NULL,
    company_name TEXT NOT NULL,
    requestor TEXT NOT NULL,
    type_code TEXT NOT NULL,
    subject TEXT NOT NULL,
    material_inquired TEXT NOT NULL DEFAULT '',
    project_name TEXT NOT NULL DEFAULT '',
    start_date TEXT NOT NULL DEFAULT '',
    transportation TEXT NOT NULL DEFAULT '',
    installer_names TEXT NOT NULL DEFAULT '',
    contact_person_name TEXT NOT NULL DEFAULT '',
    contact_person_phone TEXT NOT NULL DEFAULT '',
    company_requested TEXT NOT NULL DEFAULT '',
    pic_name TEXT NOT NULL DEFAULT '',
    expiration_date TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX idx_letters_year ON letters(year);
CREATE INDEX idx_letters_position ON letters(position);
CREATE INDEX idx_letters_type ON letters(type_code);

-- Scanned copies attached to a letter. ord keeps upload order. Names
-- are not unique; hydrated remote rows may carry duplicates.
CREATE TABLE letter_files (
    letter_id TEXT NOT NULL,
    name TEXT NOT NULL,
    url TEXT NOT NULL,
    uploaded_at TIMESTAMP NOT NULL,
    ord INTEGER NOT NULL,
    PRIMARY KEY (letter_id, ord),
    FOREIGN KEY (letter_id) REFERENCES letters(id) ON DELETE CASCADE
);

-- Portal accounts
CREATE TABLE users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    role TEXT NOT NULL CHECK(role IN ('admin', 'user')),
    full_name TEXT NOT NULL,
    department TEXT NOT NULL
);

-- Runtime overrides for the remote endpoint; absent keys fall back to
-- compiled defaults.
CREATE TABLE settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
