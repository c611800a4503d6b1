package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

// pgxQueryer is satisfied by *pgx.Conn and *pgxpool.Pool.
type pgxQueryer interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
}

type PostgresStore struct {
	db pgxQueryer
}

func NewPostgresStore(db pgxQueryer) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM kv_store WHERE key = $1`

	var value string
	err := s.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrKeyNotFound
		}
		err := fmt.Errorf("could not read key %s: %w", key, err)
		log.Error(err)
		return "", err
	}
	return value, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value string) error {
	query := `INSERT INTO kv_store (key, value) VALUES ($1, $2)
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

	_, err := s.db.Exec(ctx, query, key, value)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return err
	}
	return nil
}
