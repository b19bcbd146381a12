package stores

import (
	"context"
	"database/sql"
	"time"
)

// RunStatus represents the status of a generation run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run represents a generation run
type Run struct {
	ID          string     `json:"id"`
	Workspace   string     `json:"workspace"`
	ConfigPath  string     `json:"config_path"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Metadata    string     `json:"metadata"` // JSON blob
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ArtifactRecord represents one artifact outcome within a run
type ArtifactRecord struct {
	ID             string     `json:"id"`
	RunID          string     `json:"run_id"`
	ArtifactID     string     `json:"artifact_id"`
	OutputPath     string     `json:"output_path"`
	Template       string     `json:"template"`
	MergeMode      string     `json:"merge_mode"`
	Action         string     `json:"action"` // write, skip, error
	ContentHash    *string    `json:"content_hash,omitempty"`
	OrphanedBlocks int        `json:"orphaned_blocks"`
	Message        *string    `json:"message,omitempty"`
	DurationMs     int64      `json:"duration_ms"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// FileState tracks the last content written to each output path. The hash
// lets later runs detect out-of-band edits to generated files.
type FileState struct {
	OutputPath  string    `json:"output_path"`
	ArtifactID  string    `json:"artifact_id"`
	ContentHash string    `json:"content_hash"` // SHA256 of written content
	LastRunID   string    `json:"last_run_id"`
	LastWritten time.Time `json:"last_written"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store defines the interface for the generation manifest
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	UpdateRunStatus(ctx context.Context, id string, status RunStatus, err *string) error
	ListRuns(ctx context.Context, limit, offset int) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	// Artifact record operations
	CreateArtifactRecord(ctx context.Context, record *ArtifactRecord) error
	GetArtifactRecord(ctx context.Context, id string) (*ArtifactRecord, error)
	ListArtifactRecordsByRun(ctx context.Context, runID string) ([]*ArtifactRecord, error)

	// File state operations
	UpsertFileState(ctx context.Context, state *FileState) error
	GetFileState(ctx context.Context, outputPath string) (*FileState, error)
	ListFileStates(ctx context.Context, limit, offset int) ([]*FileState, error)
	DeleteFileState(ctx context.Context, outputPath string) error

	// Utility
	HealthCheck(ctx context.Context) error
}
