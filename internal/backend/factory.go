package backend

import (
	"context"
	"fmt"

	"fintrack/internal/log"
	"fintrack/internal/persist"
)

const defaultDataDirectory = "data"

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		kv  persist.KV
		err error
	)
	switch config.Type {
	case MemoryBackend:
		kv = persist.NewMemoryKV()
	case FileBackend:
		kv, err = f.createFileBackend(config)
	case SQLiteBackend:
		kv, err = persist.NewSQLiteKV(config.SQLiteDBPath)
		if err != nil {
			err = fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
	case PostgresBackend:
		kv, err = persist.NewPostgresKV(ctx, config.PostgresDSN)
		if err != nil {
			err = fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("Initialized storage backend",
		log.FieldBackend, config.Type.String(),
		"data_directory", config.DataDirectory,
		"db_path", config.SQLiteDBPath)

	return &BackendResult{
		KV:      kv,
		Type:    config.Type,
		Cleanup: kv.Close,
	}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (persist.KV, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = defaultDataDirectory
	}
	kv, err := persist.NewFileKV(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}
	return kv, nil
}
