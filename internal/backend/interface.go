package backend

import (
	"context"

	"budget/internal/storage"
)

// Opener opens the store behind a save/load target. A target is a file
// path, a database path or a sheet tab name depending on the backend.
type Opener interface {
	Open(ctx context.Context, target string) (storage.Store, error)
	DefaultTarget() string
}

// Config holds configuration for store creation
type Config struct {
	Type BackendType

	// Roster used to match legacy share fields in records files
	Participants []string

	// File specific
	LedgerFile   string
	LedgerFormat string

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
