// Package catalog records which index files have been built, with their
// header checksum and corpus counts, so searchers can discover them.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/postgres"
)

// Entry describes one committed index file.
type Entry struct {
	Path      string    `json:"path"`
	Documents int       `json:"documents"`
	Words     int       `json:"words"`
	Bytes     int64     `json:"bytes"`
	Checksum  uint32    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

func (e Entry) validate() error {
	if e.Path == "" {
		return apperrors.Invalid("catalog entry needs a path")
	}
	if e.Documents < 0 || e.Words < 0 || e.Bytes < 0 {
		return apperrors.Invalid("catalog entry %s has negative counts", e.Path)
	}
	return nil
}

// Store persists catalog entries. Recording a path again replaces its entry.
type Store interface {
	Record(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
}

const schema = `CREATE TABLE IF NOT EXISTS index_files (
	path       TEXT PRIMARY KEY,
	documents  INTEGER NOT NULL,
	words      INTEGER NOT NULL,
	bytes      BIGINT NOT NULL,
	checksum   BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps the catalog in the index_files table.
type PostgresStore struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewPostgresStore(db *postgres.Client) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: slog.Default().With("component", "catalog"),
	}
}

// EnsureSchema creates the index_files table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating index_files table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO index_files (path, documents, words, bytes, checksum, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (path) DO UPDATE SET
			documents = EXCLUDED.documents,
			words = EXCLUDED.words,
			bytes = EXCLUDED.bytes,
			checksum = EXCLUDED.checksum,
			created_at = EXCLUDED.created_at`,
			e.Path, e.Documents, e.Words, e.Bytes, int64(e.Checksum), e.CreatedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("recording index file %s: %w", e.Path, err)
	}
	s.logger.Info("index file recorded",
		"path", e.Path,
		"documents", e.Documents,
		"words", e.Words,
		"checksum", e.Checksum,
	)
	return nil
}

// List returns every entry, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT path, documents, words, bytes, checksum, created_at
		FROM index_files ORDER BY created_at DESC, path`)
	if err != nil {
		return nil, fmt.Errorf("listing index files: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var checksum int64
		if err := rows.Scan(&e.Path, &e.Documents, &e.Words, &e.Bytes, &checksum, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning index file row: %w", err)
		}
		e.Checksum = uint32(checksum)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MemoryStore is a process-local Store used when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Record(_ context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	m.entries[e.Path] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// Paths returns the path of every entry in s, newest first.
func Paths(ctx context.Context, s Store) ([]string, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths, nil
}
