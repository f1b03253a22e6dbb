package cachestore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/taladar/sl-map-tools/pkg/logger"
	"github.com/taladar/sl-map-tools/pkg/metrics"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore is the default Store backend. SQLite transactions give the
// required atomic per-key upsert: a crash mid-write never leaves a
// partial entry, the key simply stays at its previous state.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string, l logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: l,
	}

	if err := s.runMigrations(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	l.Info("sqlite cache store initialized", "path", path)

	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.Up(s.db, "migrations")
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	s.logger.Debug("sqlite cache get", "key", key)

	query := `SELECT payload, negative, etag, last_modified, expires_at, stored_at
	FROM cache_entries
	WHERE key = ?`

	var (
		entry        Entry
		lastModified int64
		expiresAt    int64
		storedAt     int64
	)
	err := s.db.QueryRowContext(ctx, query, key).
		Scan(&entry.Payload, &entry.Negative, &entry.ETag, &lastModified, &expiresAt, &storedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			metrics.CacheMisses.Inc()
			return Entry{}, false, nil
		}
		s.logger.Error("sqlite cache get failed", "key", key, "error", err)
		return Entry{}, false, fmt.Errorf("%w: %v", ErrStore, err)
	}

	entry.LastModified = fromUnix(lastModified)
	entry.ExpiresAt = fromUnix(expiresAt)
	entry.StoredAt = fromUnix(storedAt)
	metrics.CacheHits.Inc()
	return entry, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, entry Entry) error {
	s.logger.Debug("sqlite cache put", "key", key, "size", len(entry.Payload), "negative", entry.Negative)

	query := `INSERT INTO cache_entries (key, payload, negative, etag, last_modified, expires_at, stored_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		payload = excluded.payload,
		negative = excluded.negative,
		etag = excluded.etag,
		last_modified = excluded.last_modified,
		expires_at = excluded.expires_at,
		stored_at = excluded.stored_at`

	_, err := s.db.ExecContext(ctx, query, key, entry.Payload, entry.Negative, entry.ETag,
		toUnix(entry.LastModified), toUnix(entry.ExpiresAt), toUnix(entry.StoredAt))
	if err != nil {
		s.logger.Error("sqlite cache put failed", "key", key, "error", err)
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	metrics.CacheStores.Inc()
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(seconds int64) time.Time {
	if seconds == 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0).UTC()
}
