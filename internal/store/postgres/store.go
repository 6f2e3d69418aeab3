package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/peerbulle/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(config *store.DBConfig) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return sqlx.Rebind(sqlx.DOLLAR, query)
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

func (s *PostgresStore) ApplyMigrations(dir string) error {
	logger.Info.Printf("Applying postgres migrations from %s", dir)
	return s.BaseStore.ApplyMigrations(dir, nil)
}
