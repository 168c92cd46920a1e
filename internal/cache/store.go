package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vantage/internal/faults"
	"vantage/internal/project"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store is the best-effort local mirror of per-scene annotation sets, backed
// by SQLite. It is a fallback read source and a write-through safety net; it
// may lag or lead the authoritative document and that is never an error.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the annotation cache database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create cache schema: %w", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion)
		if err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Put replaces the cache entry for one scene, leaving all other entries
// untouched. Write failures are tagged as quota errors for the caller to
// log and tolerate.
func (s *Store) Put(ctx context.Context, sceneURL string, set project.AnnotationSet) error {
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode annotations: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO annotations (scene_url, payload, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(scene_url) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		sceneURL,
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return faults.Wrap(faults.ErrQuota, "cache", "put", sceneURL, err)
	}
	return nil
}

// Get returns the cached annotation set for a scene. Absence is reported via
// the bool, not an error.
func (s *Store) Get(ctx context.Context, sceneURL string) (project.AnnotationSet, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM annotations WHERE scene_url = ?`, sceneURL).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return project.AnnotationSet{}, false, nil
	}
	if err != nil {
		return project.AnnotationSet{}, false, fmt.Errorf("read cache entry: %w", err)
	}

	var set project.AnnotationSet
	if err := json.Unmarshal([]byte(payload), &set); err != nil {
		return project.AnnotationSet{}, false, fmt.Errorf("decode cache entry %q: %w", sceneURL, err)
	}
	project.EnsureEndpointNames(set.Endpoints)
	return set, true, nil
}

// All returns every cached per-scene annotation set keyed by scene URL.
func (s *Store) All(ctx context.Context) (map[string]project.AnnotationSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT scene_url, payload FROM annotations ORDER BY scene_url`)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]project.AnnotationSet)
	for rows.Next() {
		var url, payload string
		if err := rows.Scan(&url, &payload); err != nil {
			return nil, err
		}
		var set project.AnnotationSet
		if err := json.Unmarshal([]byte(payload), &set); err != nil {
			return nil, fmt.Errorf("decode cache entry %q: %w", url, err)
		}
		project.EnsureEndpointNames(set.Endpoints)
		out[url] = set
	}
	return out, rows.Err()
}

// Delete removes one scene's cache entry. Deleting an absent entry is not an error.
func (s *Store) Delete(ctx context.Context, sceneURL string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM annotations WHERE scene_url = ?`, sceneURL); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}
