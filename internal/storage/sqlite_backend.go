package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Benny93/prefill-go/internal/prefill"
)

// SQLiteBackend stores mappings in a SQLite database file, one row per
// target field.
type SQLiteBackend struct {
	mu       sync.RWMutex
	db       *sql.DB
	readOnly bool
}

// NewSQLiteBackend creates a new SQLite backend.
func NewSQLiteBackend() *SQLiteBackend {
	return &SQLiteBackend{}
}

// Initialize opens or creates the database file at path. The schema is
// migrated unless readOnly is set.
func (s *SQLiteBackend) Initialize(path string, readOnly bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dsn := path
	if readOnly {
		dsn = "file:" + path + "?mode=ro"
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if !readOnly {
		if err := migrate(db); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	s.db = db
	s.readOnly = readOnly
	return nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS form_configs (
		form_id TEXT PRIMARY KEY,
		revision TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS mappings (
		form_id TEXT NOT NULL,
		field_id TEXT NOT NULL,
		source_type TEXT NOT NULL,
		source_id TEXT NOT NULL,
		source_field TEXT NOT NULL,
		PRIMARY KEY (form_id, field_id),
		FOREIGN KEY (form_id) REFERENCES form_configs(form_id) ON DELETE CASCADE
	);
	`

	_, err := db.Exec(schema)
	return err
}

// Close releases all resources held by the backend.
func (s *SQLiteBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Persist implements MappingBackend. The form's rows are replaced in one
// transaction.
func (s *SQLiteBackend) Persist(ctx context.Context, formID string, mappings map[string]prefill.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrNotInitialized
	}
	if s.readOnly {
		return errReadOnly(formID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO form_configs (form_id, revision, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(form_id) DO UPDATE SET
			revision = excluded.revision,
			updated_at = excluded.updated_at
	`, formID, uuid.NewString(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert form config: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM mappings WHERE form_id = ?`, formID); err != nil {
		return fmt.Errorf("failed to clear mappings: %w", err)
	}

	for fieldID, m := range mappings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO mappings (form_id, field_id, source_type, source_id, source_field)
			VALUES (?, ?, ?, ?, ?)
		`, formID, fieldID, string(m.SourceType), m.SourceID, m.SourceFieldID)
		if err != nil {
			return fmt.Errorf("failed to insert mapping %s: %w", fieldID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mappings for form %s: %w", formID, err)
	}
	return nil
}

// LoadAll implements MappingBackend.
func (s *SQLiteBackend) LoadAll(ctx context.Context) (map[string]map[string]prefill.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}

	out := make(map[string]map[string]prefill.Mapping)

	formRows, err := s.db.QueryContext(ctx, `SELECT form_id FROM form_configs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query form configs: %w", err)
	}
	defer formRows.Close()

	for formRows.Next() {
		var formID string
		if err := formRows.Scan(&formID); err != nil {
			return nil, fmt.Errorf("failed to scan form config: %w", err)
		}
		out[formID] = make(map[string]prefill.Mapping)
	}
	if err := formRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating form configs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT form_id, field_id, source_type, source_id, source_field
		FROM mappings
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			formID, sourceType string
			m                  prefill.Mapping
		)
		if err := rows.Scan(&formID, &m.TargetFieldID, &sourceType, &m.SourceID, &m.SourceFieldID); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		m.SourceType = prefill.SourceKind(sourceType)

		if out[formID] == nil {
			out[formID] = make(map[string]prefill.Mapping)
		}
		out[formID][m.TargetFieldID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mappings: %w", err)
	}

	return out, nil
}

// Revision implements MappingBackend.
func (s *SQLiteBackend) Revision(ctx context.Context, formID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return "", ErrNotInitialized
	}

	var revision string
	err := s.db.QueryRowContext(ctx,
		`SELECT revision FROM form_configs WHERE form_id = ?`, formID,
	).Scan(&revision)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query revision: %w", err)
	}
	return revision, nil
}

// FormCount implements MappingBackend. It reports 0 when the count cannot be
// read.
func (s *SQLiteBackend) FormCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return 0
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM form_configs`).Scan(&n); err != nil {
		return 0
	}
	return n
}
