package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB-backed Store, grounded on the teacher's
// MySQLStore (graph/store/mysql.go): pooled connections, upsert via
// INSERT ... ON DUPLICATE KEY UPDATE.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a pooled connection to dsn and ensures the schema
// exists. DSN format: "user:pass@tcp(host:port)/dbname?parseTime=true".
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open mysql: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS pipeline_meta (
			id VARCHAR(191) PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			definition LONGTEXT NOT NULL,
			metadata_by_node_id LONGTEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		) ENGINE=InnoDB
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("storage: create pipeline_meta: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *MySQLStore) Close() error { return s.db.Close() }

// Save implements Store.
func (s *MySQLStore) Save(ctx context.Context, meta Meta) error {
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

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipeline_meta (id, name, description, definition, metadata_by_node_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			description = VALUES(description),
			definition = VALUES(definition),
			metadata_by_node_id = VALUES(metadata_by_node_id),
			updated_at = VALUES(updated_at)
	`, meta.ID, meta.Name, meta.Description, string(defJSON), string(metaJSON), createdAt, now)
	if err != nil {
		return fmt.Errorf("storage: save: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *MySQLStore) Get(ctx context.Context, id string) (Meta, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, definition, metadata_by_node_id, created_at, updated_at
		FROM pipeline_meta WHERE id = ?
	`, id)
	return scanMeta(row)
}

// List implements Store.
func (s *MySQLStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, updated_at FROM pipeline_meta`)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete implements Store.
func (s *MySQLStore) Delete(ctx context.Context, id string) (bool, error) {
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
func (s *MySQLStore) Has(ctx context.Context, id string) (bool, error) {
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
func (s *MySQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pipeline_meta`); err != nil {
		return fmt.Errorf("storage: clear: %w", err)
	}
	return nil
}
