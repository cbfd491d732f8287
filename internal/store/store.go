package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Store wraps the pooled Postgres connection and exposes typed
// queries for every entity. Lifecycle managers never see raw rows
type Store struct {
	db *sql.DB
}

// Open connects to Postgres and configures the connection pool
func Open(databaseURL string, maxConns int, minConns int) (*Store, error) {

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(minConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}

	log.Info().Int("max_conns", maxConns).Msg("Database connection pool ready")
	return &Store{db: db}, nil
}

// InitSchema creates the tables if they do not exist yet.
// Safe to run on every startup
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("could not initialise schema: %w", err)
	}
	log.Info().Msg("Database schema initialised")
	return nil
}

// Close releases all pooled connections
func (s *Store) Close() error {
	return s.db.Close()
}
