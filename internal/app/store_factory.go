package app

import (
	"fmt"

	"github.com/shrimpsizemoose/peerbulle/internal/store"
	"github.com/shrimpsizemoose/peerbulle/internal/store/postgres"
	"github.com/shrimpsizemoose/peerbulle/internal/store/sqlite"
)

func NewStore(dsn, migrationsDir string) (store.ReviewStore, error) {
	config := &store.DBConfig{
		DSN:           dsn,
		Type:          store.DetectType(dsn),
		MigrationsDir: migrationsDir,
	}

	switch config.Type {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(config)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(config)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
