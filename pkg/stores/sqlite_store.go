package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	return &SQLiteStore{
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
}

// CommitTx commits a transaction
func (s *SQLiteStore) CommitTx(tx *sql.Tx) error {
	return tx.Commit()
}

// RollbackTx rolls back a transaction
func (s *SQLiteStore) RollbackTx(tx *sql.Tx) error {
	return tx.Rollback()
}

// CreateRun creates a new run record
func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO runs (id, workspace, config_path, status, started_at, completed_at, error, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Workspace,
		run.ConfigPath,
		run.Status,
		run.StartedAt,
		run.CompletedAt,
		run.Error,
		run.Metadata,
		run.CreatedAt,
		run.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `
		SELECT id, workspace, config_path, status, started_at, completed_at, error, metadata, created_at, updated_at
		FROM runs
		WHERE id = ?
	`

	run := &Run{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Workspace,
		&run.ConfigPath,
		&run.Status,
		&run.StartedAt,
		&run.CompletedAt,
		&run.Error,
		&run.Metadata,
		&run.CreatedAt,
		&run.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// UpdateRunStatus updates the status of a run
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, id string, status RunStatus, errMsg *string) error {
	query := `
		UPDATE runs
		SET status = ?, error = ?, completed_at = ?
		WHERE id = ?
	`

	var completedAt *time.Time
	if status == RunStatusCompleted || status == RunStatusFailed || status == RunStatusCancelled {
		now := time.Now()
		completedAt = &now
	}

	result, err := s.db.ExecContext(ctx, query, status, errMsg, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// ListRuns lists runs with pagination
func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*Run, error) {
	query := `
		SELECT id, workspace, config_path, status, started_at, completed_at, error, metadata, created_at, updated_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run := &Run{}
		err := rows.Scan(
			&run.ID,
			&run.Workspace,
			&run.ConfigPath,
			&run.Status,
			&run.StartedAt,
			&run.CompletedAt,
			&run.Error,
			&run.Metadata,
			&run.CreatedAt,
			&run.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// DeleteRun deletes a run by ID
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	query := `DELETE FROM runs WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// CreateArtifactRecord creates a new artifact record
func (s *SQLiteStore) CreateArtifactRecord(ctx context.Context, record *ArtifactRecord) error {
	query := `
		INSERT INTO artifact_records (
			id, run_id, artifact_id, output_path, template, merge_mode, action,
			content_hash, orphaned_blocks, message, duration_ms, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.RunID,
		record.ArtifactID,
		record.OutputPath,
		record.Template,
		record.MergeMode,
		record.Action,
		record.ContentHash,
		record.OrphanedBlocks,
		record.Message,
		record.DurationMs,
		record.CreatedAt,
		record.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create artifact record: %w", err)
	}

	return nil
}

// GetArtifactRecord retrieves an artifact record by ID
func (s *SQLiteStore) GetArtifactRecord(ctx context.Context, id string) (*ArtifactRecord, error) {
	query := `
		SELECT id, run_id, artifact_id, output_path, template, merge_mode, action,
			   content_hash, orphaned_blocks, message, duration_ms, created_at, completed_at
		FROM artifact_records
		WHERE id = ?
	`

	record := &ArtifactRecord{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.RunID,
		&record.ArtifactID,
		&record.OutputPath,
		&record.Template,
		&record.MergeMode,
		&record.Action,
		&record.ContentHash,
		&record.OrphanedBlocks,
		&record.Message,
		&record.DurationMs,
		&record.CreatedAt,
		&record.CompletedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artifact record not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact record: %w", err)
	}

	return record, nil
}

// ListArtifactRecordsByRun lists all artifact records for a run
func (s *SQLiteStore) ListArtifactRecordsByRun(ctx context.Context, runID string) ([]*ArtifactRecord, error) {
	query := `
		SELECT id, run_id, artifact_id, output_path, template, merge_mode, action,
			   content_hash, orphaned_blocks, message, duration_ms, created_at, completed_at
		FROM artifact_records
		WHERE run_id = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifact records: %w", err)
	}
	defer rows.Close()

	records := []*ArtifactRecord{}
	for rows.Next() {
		record := &ArtifactRecord{}
		err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.ArtifactID,
			&record.OutputPath,
			&record.Template,
			&record.MergeMode,
			&record.Action,
			&record.ContentHash,
			&record.OrphanedBlocks,
			&record.Message,
			&record.DurationMs,
			&record.CreatedAt,
			&record.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artifact records: %w", err)
	}

	return records, nil
}

// UpsertFileState inserts or updates file state
func (s *SQLiteStore) UpsertFileState(ctx context.Context, state *FileState) error {
	query := `
		INSERT INTO file_state (
			output_path, artifact_id, content_hash, last_run_id, last_written, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(output_path) DO UPDATE SET
			artifact_id = excluded.artifact_id,
			content_hash = excluded.content_hash,
			last_run_id = excluded.last_run_id,
			last_written = excluded.last_written,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		state.OutputPath,
		state.ArtifactID,
		state.ContentHash,
		state.LastRunID,
		state.LastWritten,
		state.CreatedAt,
		state.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert file state: %w", err)
	}

	return nil
}

// GetFileState retrieves file state by output path
func (s *SQLiteStore) GetFileState(ctx context.Context, outputPath string) (*FileState, error) {
	query := `
		SELECT output_path, artifact_id, content_hash, last_run_id, last_written, created_at, updated_at
		FROM file_state
		WHERE output_path = ?
	`

	state := &FileState{}
	err := s.db.QueryRowContext(ctx, query, outputPath).Scan(
		&state.OutputPath,
		&state.ArtifactID,
		&state.ContentHash,
		&state.LastRunID,
		&state.LastWritten,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("file state not found: %s", outputPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file state: %w", err)
	}

	return state, nil
}

// ListFileStates lists all file states with pagination
func (s *SQLiteStore) ListFileStates(ctx context.Context, limit, offset int) ([]*FileState, error) {
	query := `
		SELECT output_path, artifact_id, content_hash, last_run_id, last_written, created_at, updated_at
		FROM file_state
		ORDER BY last_written DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list file states: %w", err)
	}
	defer rows.Close()

	states := []*FileState{}
	for rows.Next() {
		state := &FileState{}
		err := rows.Scan(
			&state.OutputPath,
			&state.ArtifactID,
			&state.ContentHash,
			&state.LastRunID,
			&state.LastWritten,
			&state.CreatedAt,
			&state.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file state: %w", err)
		}
		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file states: %w", err)
	}

	return states, nil
}

// DeleteFileState deletes file state by output path
func (s *SQLiteStore) DeleteFileState(ctx context.Context, outputPath string) error {
	query := `DELETE FROM file_state WHERE output_path = ?`

	result, err := s.db.ExecContext(ctx, query, outputPath)
	if err != nil {
		return fmt.Errorf("failed to delete file state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("file state not found: %s", outputPath)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
