package generator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriter writes output files transactionally: content lands in a
// temporary file in the target directory, is flushed, and only then renamed
// over the destination. A failed write never leaves a partial file behind.
type AtomicWriter struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// NewAtomicWriter creates a writer with the default permissions (0755
// directories, 0644 files).
func NewAtomicWriter() *AtomicWriter {
	return &AtomicWriter{
		dirPerm:  0o755,
		filePerm: 0o644,
	}
}

// Write atomically writes data to path, creating parent directories as
// needed.
func (w *AtomicWriter) Write(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, w.dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".hexaglue-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Chmod(w.filePerm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}

// ContentHash returns the hex-encoded SHA-256 of data, as recorded in the
// generation manifest.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
