package generator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWriter_Write(t *testing.T) {
	w := NewAtomicWriter()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.go")

	if err := w.Write(path, []byte("package out\n")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written file: %v", err)
	}
	if string(got) != "package out\n" {
		t.Errorf("content = %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("file mode = %v, want 0644", info.Mode().Perm())
	}
}

func TestAtomicWriter_Overwrite(t *testing.T) {
	w := NewAtomicWriter()
	path := filepath.Join(t.TempDir(), "out.go")

	if err := w.Write(path, []byte("first")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := w.Write(path, []byte("second")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "second" {
		t.Errorf("content = %q, want second", got)
	}
}

func TestAtomicWriter_NoTempLeftover(t *testing.T) {
	w := NewAtomicWriter()
	dir := t.TempDir()

	if err := w.Write(filepath.Join(dir, "out.go"), []byte("x")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.go" {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("hello"))
	b := ContentHash([]byte("hello"))
	c := ContentHash([]byte("world"))

	if a != b {
		t.Error("identical content should hash identically")
	}
	if a == c {
		t.Error("different content should hash differently")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
