package orm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.miragespace.co/idcontains/spec/repro"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"moul.io/zapgorm2"
)

// Engine provisions and removes the physical database behind a Store.
type Engine interface {
	Backend() repro.BackendKind
	// Provision makes sure the target database exists and returns a
	// dialector connected to it.
	Provision(ctx context.Context) (gorm.Dialector, error)
	// Drop removes the target database. It is called after the gorm handle
	// has been closed and must tolerate a database that was never created.
	Drop(ctx context.Context) error
}

// ContainsFunc scopes tx to records whose id is a member of ids.
type ContainsFunc[K repro.Key] func(tx *gorm.DB, ids []K) *gorm.DB

type Config[K repro.Key] struct {
	Logger   *zap.Logger
	Engine   Engine
	Contains ContainsFunc[K]
}

func (c Config[K]) validate() error {
	if c.Logger == nil {
		return fmt.Errorf("nil Logger is invalid")
	}
	if c.Engine == nil {
		return fmt.Errorf("nil Engine is invalid")
	}
	if c.Contains == nil {
		return fmt.Errorf("nil Contains is invalid")
	}
	return nil
}

// Store is a repro.Store backed by a relational engine through gorm.
type Store[K repro.Key] struct {
	logger   *zap.Logger
	engine   Engine
	contains ContainsFunc[K]

	mu     sync.Mutex
	db     *gorm.DB
	closed bool
}

var _ repro.Store[int64] = (*Store[int64])(nil)

func New[K repro.Key](cfg Config[K]) (*Store[K], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Store[K]{
		logger:   cfg.Logger,
		engine:   cfg.Engine,
		contains: cfg.Contains,
	}, nil
}

// GormLogger bridges gorm's logger to zap. Query traces are emitted at debug
// level on the given logger.
func GormLogger(logger *zap.Logger) zapgorm2.Logger {
	l := zapgorm2.New(logger)
	l.IgnoreRecordNotFoundError = true
	l.SlowThreshold = time.Millisecond * 500
	l.LogLevel = gormlogger.Info
	return l
}

func (s *Store[K]) Backend() repro.BackendKind {
	return s.engine.Backend()
}

func (s *Store[K]) EnsureCreated(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return repro.ErrClosed
	}

	if s.db == nil {
		dialector, err := s.engine.Provision(ctx)
		if err != nil {
			return fmt.Errorf("provisioning %s database: %w", s.engine.Backend(), err)
		}
		db, err := gorm.Open(dialector, &gorm.Config{
			Logger:         GormLogger(s.logger),
			PrepareStmt:    true,
			TranslateError: true,
		})
		if err != nil {
			return fmt.Errorf("opening %s database: %w", s.engine.Backend(), err)
		}
		s.db = db
	}

	if err := s.db.WithContext(ctx).AutoMigrate(&repro.Record[K]{}); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func (s *Store[K]) EnsureDeleted(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	closeErr := s.closeDB()
	dropErr := s.engine.Drop(ctx)
	return errors.Join(closeErr, dropErr)
}

func (s *Store[K]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return s.closeDB()
}

func (s *Store[K]) closeDB() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store[K]) handle(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, repro.ErrClosed
	}
	if s.db == nil {
		return nil, repro.ErrNotCreated
	}
	return s.db.WithContext(ctx), nil
}

func (s *Store[K]) Add(ctx context.Context, values ...string) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}
	tx, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}

	records := make([]repro.Record[K], len(values))
	for i, v := range values {
		records[i].Value = v
	}

	resp := tx.Create(&records)
	if resp.Error != nil {
		return 0, resp.Error
	}
	return int(resp.RowsAffected), nil
}

func (s *Store[K]) All(ctx context.Context) ([]repro.Record[K], error) {
	tx, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]repro.Record[K], 0)
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store[K]) WhereIDIn(ctx context.Context, ids []K) ([]repro.Record[K], error) {
	tx, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]repro.Record[K], 0)
	if err := s.contains(tx.Model(&repro.Record[K]{}), ids).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
