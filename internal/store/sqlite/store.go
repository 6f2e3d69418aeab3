// internal/store/sqlite/store.go
package sqlite

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"
	_ "modernc.org/sqlite"

	"github.com/shrimpsizemoose/peerbulle/internal/store"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type SQLiteStore struct {
	store.BaseStore
}

func NewSQLiteStore(config *store.DBConfig) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	// single writer; also keeps one shared database for ":memory:"
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return query
		},
	}}

	if config.MigrationsDir != "" {
		if err := s.ApplyMigrations(config.MigrationsDir); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	return s, nil
}

func (s *SQLiteStore) ApplyMigrations(dir string) error {
	logger.Info.Printf("Applying sqlite migrations from %s", dir)
	return s.BaseStore.ApplyMigrations(dir, translateToSQLite)
}

var sqliteReplacer = strings.NewReplacer(
	"BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT",
	"BIGINT", "INTEGER",
	"UUID", "TEXT",
	"BOOLEAN", "INTEGER",
	"DEFAULT FALSE", "DEFAULT 0",
	"DEFAULT TRUE", "DEFAULT 1",
	"now()", "CURRENT_TIMESTAMP",
)

// translateToSQLite converts Postgres SQL to SQLite dialect
func translateToSQLite(sql string) string {
	return sqliteReplacer.Replace(sql)
}
