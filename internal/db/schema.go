package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// Property mappings (item_types.properties, items.properties,
// instances.properties) are JSON objects stored as TEXT. Currency amounts
// (wallet, bank, bank_cap, payments.amount) are integer cents.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'readonly' CHECK (role IN ('admin', 'gateway', 'readonly')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_username_active
    ON accounts(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS users (
    id         INTEGER PRIMARY KEY,
    username   TEXT NOT NULL DEFAULT '',
    wallet     INTEGER NOT NULL DEFAULT 0,
    bank       INTEGER NOT NULL DEFAULT 0,
    bank_cap   INTEGER NOT NULL DEFAULT 0,
    level      INTEGER NOT NULL DEFAULT 1,
    exp        INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS item_types (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    properties TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id           INTEGER PRIMARY KEY,
    item_type_id INTEGER REFERENCES item_types(id),
    singular     TEXT NOT NULL,
    plural       TEXT NOT NULL,
    is_unique    INTEGER NOT NULL DEFAULT 0,
    properties   TEXT,
    icon         BLOB,
    icon_mime    TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at   DATETIME
);

CREATE TABLE IF NOT EXISTS holdings (
    user_id  INTEGER NOT NULL REFERENCES users(id),
    item_id  INTEGER NOT NULL REFERENCES items(id),
    location TEXT NOT NULL CHECK (location IN ('home', 'bag')),
    quantity INTEGER NOT NULL CHECK (quantity > 0),
    PRIMARY KEY (user_id, item_id, location)
);

CREATE TABLE IF NOT EXISTS instances (
    id         TEXT PRIMARY KEY,
    user_id    INTEGER NOT NULL REFERENCES users(id),
    item_id    INTEGER NOT NULL REFERENCES items(id),
    location   TEXT NOT NULL CHECK (location IN ('home', 'bag')),
    name       TEXT,
    properties TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_instances_user_item
    ON instances(user_id, item_id);

CREATE TABLE IF NOT EXISTS payments (
    id           INTEGER PRIMARY KEY,
    kind         TEXT NOT NULL CHECK (kind IN ('deposit', 'withdraw', 'pay')),
    from_user_id INTEGER REFERENCES users(id),
    to_user_id   INTEGER REFERENCES users(id),
    amount       INTEGER NOT NULL CHECK (amount > 0),
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
