package memory

import (
	"context"

	"go.miragespace.co/idcontains/spec/repro"

	"github.com/zhangyunhao116/skipmap"
	"github.com/zhangyunhao116/skipset"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type collection[K repro.Key] struct {
	name    string
	seq     *atomic.Int64
	records *skipmap.FuncMap[K, string]
}

// MemoryStore is an ephemeral in-process repro.Store. Nothing is persisted
// and every instance starts out empty.
type MemoryStore[K repro.Key] struct {
	logger *zap.Logger
	name   string
	coll   atomic.Pointer[collection[K]]
	closed atomic.Bool
}

var _ repro.Store[int64] = (*MemoryStore[int64])(nil)

func New[K repro.Key](logger *zap.Logger) *MemoryStore[K] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore[K]{
		logger: logger,
		name:   repro.DatabaseName(repro.KindOf[K]()),
	}
}

func (m *MemoryStore[K]) Backend() repro.BackendKind {
	return repro.BackendMemory
}

func (m *MemoryStore[K]) EnsureCreated(_ context.Context) error {
	if m.closed.Load() {
		return repro.ErrClosed
	}
	fresh := &collection[K]{
		name:    m.name,
		seq:     atomic.NewInt64(0),
		records: skipmap.NewFunc[K, string](repro.Less[K]),
	}
	if m.coll.CompareAndSwap(nil, fresh) {
		m.logger.Debug("Created in-memory collection", zap.String("name", m.name))
	}
	return nil
}

func (m *MemoryStore[K]) EnsureDeleted(_ context.Context) error {
	if old := m.coll.Swap(nil); old != nil {
		m.logger.Debug("Dropped in-memory collection", zap.String("name", old.name), zap.Int("records", old.records.Len()))
	}
	return nil
}

func (m *MemoryStore[K]) Close() error {
	m.closed.Store(true)
	m.coll.Store(nil)
	return nil
}

func (m *MemoryStore[K]) current() (*collection[K], error) {
	if m.closed.Load() {
		return nil, repro.ErrClosed
	}
	c := m.coll.Load()
	if c == nil {
		return nil, repro.ErrNotCreated
	}
	return c, nil
}

func (c *collection[K]) nextID() K {
	var id K
	switch p := any(&id).(type) {
	case *int64:
		*p = c.seq.Inc()
	case *repro.GUID:
		*p = repro.NewGUID()
	}
	return id
}

func (m *MemoryStore[K]) Add(ctx context.Context, values ...string) (int, error) {
	c, err := m.current()
	if err != nil {
		return 0, err
	}
	saved := 0
	for _, v := range values {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		c.records.Store(c.nextID(), v)
		saved++
	}
	return saved, nil
}

func (m *MemoryStore[K]) All(_ context.Context) ([]repro.Record[K], error) {
	c, err := m.current()
	if err != nil {
		return nil, err
	}
	records := make([]repro.Record[K], 0, c.records.Len())
	c.records.Range(func(id K, value string) bool {
		records = append(records, repro.Record[K]{ID: id, Value: value})
		return true
	})
	return records, nil
}

func (m *MemoryStore[K]) WhereIDIn(_ context.Context, ids []K) ([]repro.Record[K], error) {
	c, err := m.current()
	if err != nil {
		return nil, err
	}
	set := skipset.NewFunc[K](repro.Less[K])
	for _, id := range ids {
		set.Add(id)
	}
	records := make([]repro.Record[K], 0, set.Len())
	c.records.Range(func(id K, value string) bool {
		if set.Contains(id) {
			records = append(records, repro.Record[K]{ID: id, Value: value})
		}
		return true
	})
	return records, nil
}
