package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteKV is a file-backed durable session backend for single-host
// deployments without redis. Expiry is enforced on read: rows past their
// expires_at are invisible and overwritten on the next write.
type SQLiteKV struct {
	db *sql.DB
}

func NewSQLiteKV(dataSourceName string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping session database: %w", err)
	}

	kv := &SQLiteKV{db: db}
	if err = kv.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}
	return kv, nil
}

func (s *SQLiteKV) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS sessions (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        expires_at DATETIME NOT NULL
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM sessions WHERE key = ? AND expires_at > ?", key, time.Now()).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query session: %w", err)
	}
	return value, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (key, value, expires_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at",
		key, value, time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

func (s *SQLiteKV) Del(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SQLiteKV) Name() string {
	return "sqlite"
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
