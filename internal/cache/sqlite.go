package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"call-compliance-go/internal/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS transcriptions (
    key TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the cache database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps :memory: databases alive and serializes writes
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (types.Transcription, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM transcriptions WHERE key = $1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Transcription{}, false, nil
	}
	if err != nil {
		return types.Transcription{}, false, err
	}
	var t types.Transcription
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return types.Transcription{}, false, fmt.Errorf("cache entry %s: %w", key, err)
	}
	return t, true, nil
}

func (s *SQLite) Put(ctx context.Context, key string, t types.Transcription) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transcriptions (key, payload, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at
	`, key, string(payload), time.Now().UTC())
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
