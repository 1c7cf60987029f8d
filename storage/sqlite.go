package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed Store, grounded on the teacher's
// SQLiteStore (graph/store/sqlite.go): single-file database, WAL mode
// for concurrent reads, one writer connection.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) a SQLite database at path
// and ensures its schema exists. Pass ":memory:" for an ephemeral,
// process-local database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("storage: %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS pipeline_meta (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			definition TEXT NOT NULL,
			metadata_by_node_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("storage: create pipeline_meta: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, meta Meta) error {
	defJSON, err := json.Marshal(meta.Definition)
	if err != nil {
		return fmt.Errorf("storage: marshal definition: %w", err)
	}
	metaJSON, err := json.Marshal(meta.MetadataByNodeID)
	if err != nil {
		return fmt.Errorf("storage: marshal metadata: %w", err)
	}

	now := meta.UpdatedAt
	createdAt := meta.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	existing, err := s.Get(ctx, meta.ID)
	if err == nil {
		createdAt = existing.CreatedAt
	} else if err != ErrNotFound {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipeline_meta (id, name, description, definition, metadata_by_node_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			definition = excluded.definition,
			metadata_by_node_id = excluded.metadata_by_node_id,
			updated_at = excluded.updated_at
	`, meta.ID, meta.Name, meta.Description, string(defJSON), string(metaJSON), createdAt, now)
	if err != nil {
		return fmt.Errorf("storage: save: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Meta, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, definition, metadata_by_node_id, created_at, updated_at
		FROM pipeline_meta WHERE id = ?
	`, id)
	return scanMeta(row)
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, updated_at FROM pipeline_meta`)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var updatedAt time.Time
		if err := rows.Scan(&sum.ID, &sum.Name, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan summary: %w", err)
		}
		sum.UpdatedAt = updatedAt
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pipeline_meta WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("storage: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: rows affected: %w", err)
	}
	return n > 0, nil
}

// Has implements Store.
func (s *SQLiteStore) Has(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM pipeline_meta WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: has: %w", err)
	}
	return true, nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pipeline_meta`); err != nil {
		return fmt.Errorf("storage: clear: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows, letting
// scanMeta serve Get without duplicating its column list.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeta(row rowScanner) (Meta, error) {
	var (
		meta      Meta
		defJSON   string
		metaJSON  string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&meta.ID, &meta.Name, &meta.Description, &defJSON, &metaJSON, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Meta{}, ErrNotFound
		}
		return Meta{}, fmt.Errorf("storage: scan: %w", err)
	}
	if err := json.Unmarshal([]byte(defJSON), &meta.Definition); err != nil {
		return Meta{}, fmt.Errorf("storage: unmarshal definition: %w", err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &meta.MetadataByNodeID); err != nil {
		return Meta{}, fmt.Errorf("storage: unmarshal metadata: %w", err)
	}
	meta.CreatedAt = createdAt
	meta.UpdatedAt = updatedAt
	return meta, nil
}
