package repro

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

const recordTable = "entries"

// Record is the single entity under test.
type Record[K Key] struct {
	ID    K `gorm:"primaryKey"`
	Value string
}

func (Record[K]) TableName() string {
	return recordTable
}

// BeforeCreate assigns a random GUID to records keyed by GUID. Int64 keys
// are left to the engine's autoincrement.
func (r *Record[K]) BeforeCreate(*gorm.DB) error {
	if g, ok := any(&r.ID).(*GUID); ok && g.IsZero() {
		*g = NewGUID()
	}
	return nil
}

// BackendKind selects one of the storage engines under test.
type BackendKind string

const (
	BackendServer BackendKind = "server"
	BackendMemory BackendKind = "memory"
	BackendSQLite BackendKind = "sqlite"
)

var BackendKinds = []BackendKind{BackendServer, BackendMemory, BackendSQLite}

func (b BackendKind) String() string {
	return string(b)
}

func ParseBackendKind(s string) (BackendKind, error) {
	for _, b := range BackendKinds {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// DatabaseName derives the per key type database (or file stem) name so
// experiments with different key types never share storage.
func DatabaseName(k KeyKind) string {
	return k.String() + "IdContainsTest"
}

// Store is the data-access context: one collection of Records bound to a
// backend and a key type. A Store owns its backend handle until Close.
type Store[K Key] interface {
	Backend() BackendKind
	// EnsureCreated creates the backing structure if it is absent.
	EnsureCreated(ctx context.Context) error
	// EnsureDeleted drops the backing structure and all of its data.
	EnsureDeleted(ctx context.Context) error
	// Add inserts one record per value and returns the number of rows committed.
	Add(ctx context.Context, values ...string) (int, error)
	All(ctx context.Context) ([]Record[K], error)
	// WhereIDIn returns the records whose id is a member of ids.
	WhereIDIn(ctx context.Context, ids []K) ([]Record[K], error)
	Close() error
}
