package allowlist

import (
	"fmt"
	"os"
	"path/filepath"
)

// File permissions for the rendered document. The proxy worker runs as a
// different user and only needs read access.
const fileMode = 0644

// AtomicWriter persists rendered documents without exposing partial writes
type AtomicWriter struct{}

// NewAtomicWriter creates a new atomic writer
func NewAtomicWriter() *AtomicWriter {
	return &AtomicWriter{}
}

// Write writes the document to a temporary file in the target directory and
// renames it into place. Readers of path see either the old or the new
// complete content, never a partial file.
func (w *AtomicWriter) Write(path, doc string) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.WriteString(doc); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmp.Chmod(fileMode); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s to %s: %w", tmpPath, path, err)
	}

	return nil
}

// CheckWritable verifies at startup that the target directory accepts new
// files, so a misconfigured path fails the process instead of every cycle.
func CheckWritable(path string) error {
	dir := filepath.Dir(path)

	probe, err := os.CreateTemp(dir, ".allowsync-probe-*")
	if err != nil {
		return fmt.Errorf("target directory %s is not writable: %w", dir, err)
	}

	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
