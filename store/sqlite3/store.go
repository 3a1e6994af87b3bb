package sqlite3

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.miragespace.co/idcontains/spec/repro"
	"go.miragespace.co/idcontains/store/orm"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Config struct {
	Logger   *zap.Logger
	DataDir  string
	CacheDir string
}

func (c Config) validate() error {
	if c.Logger == nil {
		return fmt.Errorf("nil Logger is invalid")
	}
	if c.DataDir == "" {
		return fmt.Errorf("empty DataDir is invalid")
	}
	return nil
}

// Path returns the database file used for key type k under dataDir.
func Path(dataDir string, k repro.KeyKind) string {
	return filepath.Join(dataDir, repro.DatabaseName(k)+".db")
}

type engine struct {
	logger   *zap.Logger
	path     string
	cacheDir string
}

var _ orm.Engine = (*engine)(nil)

func (e *engine) Backend() repro.BackendKind {
	return repro.BackendSQLite
}

func (e *engine) Provision(_ context.Context) (gorm.Dialector, error) {
	if err := Initialize(e.cacheDir); err != nil {
		return nil, fmt.Errorf("initializing sqlite runtime: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0750); err != nil {
		return nil, err
	}
	return openSQLite(e.logger, e.path), nil
}

func (e *engine) Drop(_ context.Context) error {
	var errs []error
	for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
		if err := os.Remove(e.path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New returns a store bound to {KeyType}IdContainsTest.db in cfg.DataDir.
// The file is created by EnsureCreated and removed by EnsureDeleted.
func New[K repro.Key](cfg Config) (*orm.Store[K], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return orm.New(orm.Config[K]{
		Logger: cfg.Logger,
		Engine: &engine{
			logger:   cfg.Logger,
			path:     Path(cfg.DataDir, repro.KindOf[K]()),
			cacheDir: cfg.CacheDir,
		},
		Contains: inlineContains[K],
	})
}

// inlineContains renders the id list as SQL literals instead of bound
// parameters. GUID literals come out as text while the column holds 16 byte
// blobs, and SQLite never considers the two equal, so GUID lookups match
// nothing. This is the discrepancy being demonstrated; do not "fix" it here.
func inlineContains[K repro.Key](tx *gorm.DB, ids []K) *gorm.DB {
	if len(ids) == 0 {
		return tx.Where("1 = 0")
	}
	literals := make([]string, len(ids))
	for i, id := range ids {
		switch v := any(id).(type) {
		case int64:
			literals[i] = repro.FormatKey(v)
		case repro.GUID:
			literals[i] = "'" + v.String() + "'"
		}
	}
	return tx.Where(clause.Expr{
		SQL:  "? IN (" + strings.Join(literals, ", ") + ")",
		Vars: []any{clause.Column{Name: "id"}},
	})
}
