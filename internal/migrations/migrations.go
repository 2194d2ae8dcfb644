package migrations

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// dialect placeholders in the schema below
var dialects = map[string]*strings.Replacer{
	"sqlite": strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{fk}}", "INTEGER",
		"{{ts}}", "DATETIME",
	),
	"postgres": strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{fk}}", "BIGINT",
		"{{ts}}", "TIMESTAMPTZ",
	),
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id {{pk}},
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'member',
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            date_joined {{ts}} NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS books (
            id {{pk}},
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            available BOOLEAN NOT NULL DEFAULT TRUE
        );`,
	`CREATE TABLE IF NOT EXISTS borrows (
            id {{pk}},
            user_id {{fk}} REFERENCES users(id) ON DELETE SET NULL,
            book_id {{fk}} REFERENCES books(id) ON DELETE SET NULL,
            borrowed_at {{ts}} NOT NULL,
            returned_at {{ts}}
        );`,
	`CREATE INDEX IF NOT EXISTS borrows_returned_at_idx ON borrows (returned_at);`,
	`CREATE INDEX IF NOT EXISTS borrows_user_idx ON borrows (user_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS borrows_active_pair_idx
            ON borrows (user_id, book_id) WHERE returned_at IS NULL;`,
	`CREATE TABLE IF NOT EXISTS token_blacklist (
            id {{pk}},
            jti TEXT NOT NULL UNIQUE,
            user_id {{fk}},
            expires_at BIGINT NOT NULL,
            blacklisted_at BIGINT NOT NULL
        );`,
	`CREATE INDEX IF NOT EXISTS token_blacklist_expires_idx ON token_blacklist (expires_at);`,
}

// Run creates the database schema required for the library backend.
func Run(db *sqlx.DB) error {
	r, ok := dialects[db.DriverName()]
	if !ok {
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}

	for _, stmt := range schema {
		if _, err := db.Exec(r.Replace(stmt)); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
