package repro

import (
	"bytes"
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// KeyKind names the Go type used as the primary key of a Record.
type KeyKind string

const (
	KeyInt64 KeyKind = "Int64"
	KeyGUID  KeyKind = "Guid"
)

var KeyKinds = []KeyKind{KeyInt64, KeyGUID}

func (k KeyKind) String() string {
	return string(k)
}

func ParseKeyKind(s string) (KeyKind, error) {
	for _, k := range KeyKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKeyKind, s)
}

// Key is the set of primary key types a Record can be parameterized with.
type Key interface {
	int64 | GUID
}

// KindOf returns the KeyKind label for K.
func KindOf[K Key]() KeyKind {
	var k K
	switch any(k).(type) {
	case int64:
		return KeyInt64
	default:
		return KeyGUID
	}
}

// Less orders keys: numerically for int64, bytewise for GUID.
func Less[K Key](a, b K) bool {
	switch x := any(a).(type) {
	case int64:
		return x < any(b).(int64)
	case GUID:
		y := any(b).(GUID)
		return bytes.Compare(x[:], y[:]) < 0
	}
	return false
}

// FormatKey renders a key the way it is printed on the console.
func FormatKey[K Key](k K) string {
	switch v := any(k).(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case GUID:
		return v.String()
	}
	return fmt.Sprint(k)
}

// GUID is a 128-bit globally-unique identifier. On SQLite it is stored as a
// 16 byte blob, on Postgres as a native uuid.
type GUID [16]byte

var (
	_ driver.Valuer = GUID{}
	_ gorm.Valuer   = GUID{}
)

func NewGUID() GUID {
	return GUID(uuid.New())
}

func ParseGUID(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, err
	}
	return GUID(u), nil
}

func (g GUID) String() string {
	return uuid.UUID(g).String()
}

func (g GUID) IsZero() bool {
	return g == GUID{}
}

// Value is used by drivers that bypass gorm's statement builder.
func (g GUID) Value() (driver.Value, error) {
	return g.String(), nil
}

func (g *GUID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*g = GUID{}
		return nil
	case [16]byte:
		*g = v
		return nil
	case []byte:
		if len(v) == 16 {
			copy(g[:], v)
			return nil
		}
		u, err := uuid.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("scanning guid: %w", err)
		}
		*g = GUID(u)
		return nil
	case string:
		u, err := uuid.Parse(v)
		if err != nil {
			return fmt.Errorf("scanning guid: %w", err)
		}
		*g = GUID(u)
		return nil
	default:
		return fmt.Errorf("scanning guid: unsupported source type %T", src)
	}
}

func (GUID) GormDataType() string {
	return "guid"
}

func (GUID) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "sqlite":
		return "blob"
	case "postgres":
		return "uuid"
	default:
		return ""
	}
}

func (g GUID) GormValue(_ context.Context, db *gorm.DB) clause.Expr {
	if db.Dialector.Name() == "sqlite" {
		raw := make([]byte, len(g))
		copy(raw, g[:])
		return clause.Expr{SQL: "?", Vars: []any{raw}}
	}
	return clause.Expr{SQL: "?", Vars: []any{g.String()}}
}
