package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at the
// end.
var migrations = []string{
	// Migration 1: index the per-user per-item lookup the selection
	// workflow and cap checks use.
	`CREATE INDEX IF NOT EXISTS idx_instances_user_item
	     ON instances(user_id, item_id)`,
}

// Migrate creates the schema and applies migrations on top of it.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
