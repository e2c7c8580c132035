package backend

import (
	"fmt"

	"budget/internal/config"
	"budget/internal/storage/file"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.StoreBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.StoreBackend)
	}

	return Config{
		Type:                backendType,
		Participants:        appConfig.Participants,
		LedgerFile:          appConfig.LedgerFile,
		LedgerFormat:        appConfig.LedgerFormat,
		SQLiteDBPath:        appConfig.SQLiteDBPath,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetName:     appConfig.GoogleSheetName,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case FileBackend:
		if c.LedgerFile == "" {
			return fmt.Errorf("ledger file is required for file backend")
		}
		if !file.Format(c.LedgerFormat).IsValid() {
			return fmt.Errorf("invalid ledger format: %s", c.LedgerFormat)
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	}

	return nil
}

// DefaultTarget returns the target used when the user gives none.
func (c Config) DefaultTarget() string {
	switch c.Type {
	case FileBackend:
		return c.LedgerFile
	case SQLiteBackend:
		return c.SQLiteDBPath
	case SheetsBackend:
		return c.GoogleSheetName
	default:
		return "ledger"
	}
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{FileBackend, SQLiteBackend, SheetsBackend, MemoryBackend}
}
