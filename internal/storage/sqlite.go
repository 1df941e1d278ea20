package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/bunka/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS history_entries (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		language TEXT,
		input_text TEXT NOT NULL,
		payload TEXT NOT NULL,
		saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_history_position ON history_entries(position);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveHistory replaces the snapshot in one transaction.
func (s *SQLiteStorage) SaveHistory(ctx context.Context, entries []models.AnalysisResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history_entries`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO history_entries (id, position, language, input_text, payload, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i := range entries {
		e := &entries[i]
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal entry %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID.String(), i, e.Language, e.InputText, string(payload), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListHistory returns the snapshot in saved order.
func (s *SQLiteStorage) ListHistory(ctx context.Context) ([]models.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM history_entries ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AnalysisResult{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var e models.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetEntry returns one entry by ID.
func (s *SQLiteStorage) GetEntry(ctx context.Context, id string) (*models.AnalysisResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM history_entries WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var e models.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &e, nil
}

// RemoveEntry deletes one entry. Removing a missing entry is not an error.
func (s *SQLiteStorage) RemoveEntry(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history_entries WHERE id = ?`, id)
	return err
}

// CountEntries returns the number of entries in the snapshot.
func (s *SQLiteStorage) CountEntries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history_entries`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
