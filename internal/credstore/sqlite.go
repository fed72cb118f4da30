package credstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chartsbridge/internal/domain"
)

// credentialsRowID pins the table to a single row: the bridge holds
// credentials for exactly one pupil.
const credentialsRowID = 1

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed credential store.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS credentials (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		pupil_code TEXT NOT NULL,
		date_of_birth INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Load retrieves the saved credentials, or nil when none are stored.
func (s *SQLiteStore) Load(ctx context.Context) (*domain.SavedCredentials, error) {
	query := `SELECT pupil_code, date_of_birth, updated_at FROM credentials WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, credentialsRowID)

	var creds domain.SavedCredentials
	var dob, updatedAt int64
	err := row.Scan(&creds.PupilCode, &dob, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan credentials row: %w", err)
	}

	creds.DateOfBirth = time.Unix(dob, 0).UTC()
	creds.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &creds, nil
}

// Save stores the credentials, replacing any previous ones.
func (s *SQLiteStore) Save(ctx context.Context, creds *domain.SavedCredentials) error {
	query := `
	INSERT INTO credentials (id, pupil_code, date_of_birth, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		pupil_code = excluded.pupil_code,
		date_of_birth = excluded.date_of_birth,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		credentialsRowID, creds.PupilCode, creds.DateOfBirth.Unix(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Clear removes the saved credentials.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, credentialsRowID); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
