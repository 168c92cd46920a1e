package blob

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"vantage/internal/faults"
	"vantage/internal/logging"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS blobs (
    key     TEXT PRIMARY KEY,
    payload BLOB NOT NULL
);`

// Store is a process-wide object store for large binary payloads, keyed by
// opaque string identifiers. The database is opened lazily on first use;
// concurrent callers racing the first operation all wait on the same
// initialization rather than triggering redundant setup.
type Store struct {
	path   string
	logger *slog.Logger

	once    sync.Once
	started atomic.Bool
	db      *sql.DB
	initErr error
}

// New builds a store for the given database path. No I/O happens until the
// first operation.
func New(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "blobstore"),
	}
}

// NewKey mints a fresh blob key.
func NewKey() string {
	return "img-" + uuid.NewString()
}

// ensure opens the database exactly once and memoizes the outcome. Every
// caller observes the same handle or the same initialization error.
func (s *Store) ensure() (*sql.DB, error) {
	s.started.Store(true)
	s.once.Do(func() {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			s.initErr = faults.Wrap(faults.ErrBlobStore, "blobstore", "open", "ensure directory", err)
			return
		}
		db, err := sql.Open("sqlite", s.path)
		if err != nil {
			s.initErr = faults.Wrap(faults.ErrBlobStore, "blobstore", "open", s.path, err)
			return
		}
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout = 5000"} {
			if _, execErr := db.Exec(pragma); execErr != nil {
				_ = db.Close()
				s.initErr = faults.Wrap(faults.ErrBlobStore, "blobstore", "open", pragma, execErr)
				return
			}
		}
		if _, err := db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.initErr = faults.Wrap(faults.ErrBlobStore, "blobstore", "open", "create schema", err)
			return
		}
		s.db = db
		s.logger.Debug("blob store opened", logging.String("path", s.path))
	})
	return s.db, s.initErr
}

// Open forces initialization. Callers that want garbage collection over an
// existing database must open the store explicitly first, since collection
// itself never does.
func (s *Store) Open() error {
	_, err := s.ensure()
	return err
}

// Put stores or overwrites payload under key and returns the key.
func (s *Store) Put(ctx context.Context, key string, payload []byte) (string, error) {
	db, err := s.ensure()
	if err != nil {
		return "", err
	}
	_, err = db.ExecContext(
		ctx,
		`INSERT INTO blobs (key, payload) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`,
		key,
		payload,
	)
	if err != nil {
		return "", faults.Wrap(faults.ErrBlobStore, "blobstore", "put", key, err)
	}
	return key, nil
}

// Get returns the payload stored under key. A missing key is reported via the
// bool, not an error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	db, err := s.ensure()
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM blobs WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, faults.Wrap(faults.ErrBlobStore, "blobstore", "get", key, err)
	}
	return payload, true, nil
}

// Delete removes an entry. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	db, err := s.ensure()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return faults.Wrap(faults.ErrBlobStore, "blobstore", "delete", key, err)
	}
	return nil
}

// Keys enumerates every stored key.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	db, err := s.ensure()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT key FROM blobs ORDER BY key`)
	if err != nil {
		return nil, faults.Wrap(faults.ErrBlobStore, "blobstore", "keys", "", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// CollectGarbage deletes every stored key not present in activeKeys. If the
// store was never opened there is nothing to collect, so no initialization is
// triggered; a racing in-flight open is waited for instead.
func (s *Store) CollectGarbage(ctx context.Context, activeKeys map[string]struct{}) error {
	if !s.started.Load() {
		return nil
	}
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	removed := 0
	for _, key := range keys {
		if _, active := activeKeys[key]; active {
			continue
		}
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("collected orphaned blobs", logging.Int("removed", removed), logging.Int("kept", len(keys)-removed))
	}
	return nil
}

// Close closes the database if it was opened.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
