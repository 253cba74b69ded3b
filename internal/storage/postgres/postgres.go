// Package postgres stores client values in a single key/value table.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/pkg/database"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations for database.RunMigrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	selectValueSQL = `SELECT value FROM client_values
WHERE client_id = $1 AND key = $2 AND (expires_at IS NULL OR expires_at > NOW())`

	upsertValueSQL = `INSERT INTO client_values (client_id, key, value, updated_at, expires_at)
VALUES ($1, $2, $3, NOW(), $4)
ON CONFLICT (client_id, key) DO UPDATE
SET value = EXCLUDED.value, updated_at = NOW(), expires_at = EXCLUDED.expires_at`

	deleteValueSQL = `DELETE FROM client_values WHERE client_id = $1 AND key = $2`

	purgeExpiredSQL = `DELETE FROM client_values WHERE expires_at IS NOT NULL AND expires_at <= NOW()`
)

// Storage implements storage.Storage on PostgreSQL. Writes are unconditional
// upserts, so the last writer wins.
type Storage struct {
	db  database.DBTX
	ttl time.Duration
}

// New creates a PostgreSQL-backed storage. A zero ttl keeps values forever.
func New(db database.DBTX, ttl time.Duration) *Storage {
	return &Storage{db: db, ttl: ttl}
}

func (s *Storage) Get(ctx context.Context, clientID, key string) (_ []byte, err error) {
	ctx, end := database.TraceQuery(ctx, "postgresql", "kv.get", selectValueSQL)
	defer func() { end(err) }()

	var value []byte
	if err := s.db.QueryRow(ctx, selectValueSQL, clientID, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound(clientID, key)
		}
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return value, nil
}

func (s *Storage) Set(ctx context.Context, clientID, key string, value []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, "postgresql", "kv.set", upsertValueSQL)
	defer func() { end(err) }()

	var expiresAt *time.Time
	if s.ttl > 0 {
		t := time.Now().UTC().Add(s.ttl)
		expiresAt = &t
	}
	if _, err := s.db.Exec(ctx, upsertValueSQL, clientID, key, value, expiresAt); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, clientID, key string) (err error) {
	ctx, end := database.TraceQuery(ctx, "postgresql", "kv.delete", deleteValueSQL)
	defer func() { end(err) }()

	if _, err := s.db.Exec(ctx, deleteValueSQL, clientID, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}

// PurgeExpired deletes rows past their expiry and returns how many went.
func (s *Storage) PurgeExpired(ctx context.Context) (_ int64, err error) {
	ctx, end := database.TraceQuery(ctx, "postgresql", "kv.purge", purgeExpiredSQL)
	defer func() { end(err) }()

	tag, err := s.db.Exec(ctx, purgeExpiredSQL)
	if err != nil {
		return 0, fmt.Errorf("purge expired values: %w", err)
	}
	return tag.RowsAffected(), nil
}
