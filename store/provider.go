package store

import (
	"fmt"

	"go.miragespace.co/idcontains/spec/repro"
	"go.miragespace.co/idcontains/store/memory"
	"go.miragespace.co/idcontains/store/postgres"
	"go.miragespace.co/idcontains/store/sqlite3"

	"go.uber.org/zap"
)

type Options struct {
	// Logger receives framework (ORM and driver) logs.
	Logger *zap.Logger
	// DataDir holds the SQLite database files.
	DataDir string
	// CacheDir holds the compiled SQLite module. Empty keeps it in memory.
	CacheDir string
	// ServerDSN addresses the maintenance database of the relational server.
	ServerDSN string
}

// Open returns a store for backend keyed by K. Connection parameters are not
// checked beyond presence; a bad server address or data directory surfaces
// from EnsureCreated.
func Open[K repro.Key](backend repro.BackendKind, opts Options) (repro.Store[K], error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch backend {
	case repro.BackendServer:
		st, err := postgres.New[K](postgres.Config{
			Logger: logger,
			DSN:    opts.ServerDSN,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case repro.BackendMemory:
		return memory.New[K](logger), nil
	case repro.BackendSQLite:
		st, err := sqlite3.New[K](sqlite3.Config{
			Logger:   logger,
			DataDir:  opts.DataDir,
			CacheDir: opts.CacheDir,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: %s", repro.ErrUnknownBackend, backend)
	}
}
