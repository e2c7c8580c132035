package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"budget/internal/log"
	"budget/internal/sheets/google"
	"budget/internal/storage"
	"budget/internal/storage/file"
	"budget/internal/storage/memory"
	"budget/internal/storage/sqlite"
)

var _ Opener = (*Factory)(nil)

// Factory opens stores of the configured backend type. Memory stores are
// kept per target for the life of the factory.
type Factory struct {
	config Config
	logger *log.Logger

	mu       sync.Mutex
	memories map[string]*memory.Store
}

func NewFactory(config Config, logger *log.Logger) (*Factory, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{
		config:   config,
		logger:   logger.WithComponent(log.ComponentBackend),
		memories: map[string]*memory.Store{},
	}, nil
}

// DefaultTarget implements Opener.
func (f *Factory) DefaultTarget() string {
	return f.config.DefaultTarget()
}

// Type returns the backend type this factory opens.
func (f *Factory) Type() BackendType {
	return f.config.Type
}

// Open implements Opener. An empty target means DefaultTarget.
func (f *Factory) Open(ctx context.Context, target string) (storage.Store, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		target = f.DefaultTarget()
	}

	var (
		store storage.Store
		err   error
	)
	switch f.config.Type {
	case FileBackend:
		store, err = f.openFile(target)
	case SQLiteBackend:
		store, err = sqlite.NewRepository(target)
	case SheetsBackend:
		store, err = google.New(ctx, f.config.GoogleSpreadsheetID, target)
	case MemoryBackend:
		store = f.openMemory(target)
	default:
		err = fmt.Errorf("unsupported backend type: %s", f.config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store %q: %w", f.config.Type, target, err)
	}

	f.logger.DebugContext(ctx, "Opened store",
		log.FieldBackend, f.config.Type,
		log.FieldTarget, target)
	return store, nil
}

// openFile picks the snapshot format for YAML targets, which cannot hold
// the records array.
func (f *Factory) openFile(target string) (storage.Store, error) {
	format := file.Format(f.config.LedgerFormat)
	switch strings.ToLower(filepath.Ext(target)) {
	case ".yaml", ".yml":
		format = file.Snapshot
	}
	return file.New(target, format, f.config.Participants)
}

func (f *Factory) openMemory(target string) storage.Store {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.memories[target]
	if !ok {
		s = memory.New()
		f.memories[target] = s
	}
	return s
}
