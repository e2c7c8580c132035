// Package file stores a ledger in a local file, either as a JSON array of
// flat expense records or as a versioned snapshot in JSON or YAML.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/storage"
)

// Format selects the file layout.
type Format string

const (
	// Records is a JSON array of flat expense records. It carries no
	// roster, so loading imports into the caller's participants.
	Records Format = "records"
	// Snapshot is the whole ledger with a schema version. Files ending in
	// .yaml or .yml are written as YAML, everything else as JSON.
	Snapshot Format = "snapshot"
)

// IsValid returns true if the format is known.
func (f Format) IsValid() bool {
	return f == Records || f == Snapshot
}

var _ storage.Store = (*Store)(nil)

// Store reads and writes one file. Participants is used to match legacy
// per-participant share fields to roster names.
type Store struct {
	path         string
	format       Format
	participants []string
}

func New(path string, format Format, participants []string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: empty file name", core.ErrValidation)
	}
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: unknown file format %q", core.ErrValidation, format)
	}
	return &Store{path: path, format: format, participants: append([]string(nil), participants...)}, nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string { return s.path }

func (s *Store) Save(ctx context.Context, snap ledger.Snapshot) error {
	var (
		data []byte
		err  error
	)
	switch {
	case s.format == Records:
		data, err = encodeRecords(snap.Expenses)
	case isYAML(s.path):
		data, err = encodeSnapshotYAML(snap)
	default:
		data, err = encodeSnapshotJSON(snap)
	}
	if err != nil {
		return core.Persistence("encode ledger", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return core.Persistence("write ledger file", err)
	}
	slog.DebugContext(ctx, "Ledger written to file",
		"path", s.path,
		"format", s.format,
		"expenses", len(snap.Expenses))
	return nil
}

func (s *Store) Load(ctx context.Context) (ledger.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ledger.Snapshot{}, core.Persistence("read ledger file", err)
	}

	var snap ledger.Snapshot
	switch {
	case s.format == Records:
		var records []core.Record
		records, err = decodeRecords(data, s.participants)
		snap = ledger.Snapshot{SchemaVersion: ledger.SchemaVersion, Expenses: records}
	case isYAML(s.path):
		snap, err = decodeSnapshotYAML(data)
	default:
		snap, err = decodeSnapshotJSON(data)
	}
	if err != nil {
		return ledger.Snapshot{}, core.Persistence("decode "+s.path, err)
	}
	slog.DebugContext(ctx, "Ledger read from file",
		"path", s.path,
		"format", s.format,
		"expenses", len(snap.Expenses))
	return snap, nil
}

func (s *Store) Close() error { return nil }

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// writeFileAtomic writes to a temporary file in the same directory and
// renames it over path, so a failed write never truncates the old file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
