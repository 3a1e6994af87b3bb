package sqlite3

import (
	"context"
	"os"
	"testing"

	"go.miragespace.co/idcontains/spec/repro"
	"go.miragespace.co/idcontains/store/orm"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func testGetDir(t *testing.T) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "sql")
	require.NoError(t, err)

	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

func testGetStore[K repro.Key](t *testing.T, dir string) *orm.Store[K] {
	t.Helper()

	as := require.New(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))

	st, err := New[K](Config{
		Logger:  logger,
		DataDir: dir,
	})
	as.NoError(err)

	t.Cleanup(func() {
		st.Close()
	})
	return st
}

func testSeed[K repro.Key](t *testing.T, st repro.Store[K]) ([]repro.Record[K], []K) {
	t.Helper()

	as := require.New(t)
	ctx := context.Background()

	as.NoError(st.EnsureCreated(ctx))
	n, err := st.Add(ctx, "foo", "bar", "foobar")
	as.NoError(err)
	as.Equal(3, n)

	all, err := st.All(ctx)
	as.NoError(err)
	as.Len(all, 3)

	ids := make([]K, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	return all, ids
}

func TestConfigValidate(t *testing.T) {
	as := require.New(t)

	_, err := New[int64](Config{DataDir: "."})
	as.Error(err)

	_, err = New[int64](Config{Logger: zap.NewNop()})
	as.Error(err)
}

func TestInt64Contains(t *testing.T) {
	as := require.New(t)
	dir := testGetDir(t)
	st := testGetStore[int64](t, dir)

	all, ids := testSeed[int64](t, st)
	as.Equal([]int64{1, 2, 3}, ids)

	matched, err := st.WhereIDIn(context.Background(), ids)
	as.NoError(err)
	as.ElementsMatch(all, matched)

	subset, err := st.WhereIDIn(context.Background(), ids[:1])
	as.NoError(err)
	as.Equal(all[:1], subset)

	none, err := st.WhereIDIn(context.Background(), nil)
	as.NoError(err)
	as.Empty(none)
}

func TestGUIDContainsLosesRows(t *testing.T) {
	as := require.New(t)
	dir := testGetDir(t)
	st := testGetStore[repro.GUID](t, dir)

	all, ids := testSeed[repro.GUID](t, st)
	for i, r := range all {
		as.False(r.ID.IsZero())
		as.Equal(ids[i], r.ID)
	}

	matched, err := st.WhereIDIn(context.Background(), ids)
	as.NoError(err)
	as.Less(len(matched), len(all))
}

func TestGUIDStoredAsBlob(t *testing.T) {
	as := require.New(t)
	dir := testGetDir(t)
	st := testGetStore[repro.GUID](t, dir)

	_, ids := testSeed[repro.GUID](t, st)

	db, err := gorm.Open(openSQLite(zap.NewNop(), Path(dir, repro.KeyGUID)), &gorm.Config{
		Logger: orm.GormLogger(zap.NewNop()),
	})
	as.NoError(err)
	sqlDB, err := db.DB()
	as.NoError(err)
	defer sqlDB.Close()

	var types []string
	as.NoError(db.Raw("SELECT typeof(id) FROM entries").Scan(&types).Error)
	as.Equal([]string{"blob", "blob", "blob"}, types)

	// bound parameters go through GUID.GormValue and do match
	var bound []repro.Record[repro.GUID]
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	as.NoError(db.Where(clause.IN{Column: clause.Column{Name: "id"}, Values: values}).Find(&bound).Error)
	as.Len(bound, len(ids))
}

func TestEnsureDeletedRemovesFile(t *testing.T) {
	as := require.New(t)
	dir := testGetDir(t)
	st := testGetStore[int64](t, dir)
	ctx := context.Background()

	path := Path(dir, repro.KeyInt64)
	as.Equal(dir+string(os.PathSeparator)+"Int64IdContainsTest.db", path)

	testSeed[int64](t, st)
	_, err := os.Stat(path)
	as.NoError(err)

	as.NoError(st.EnsureDeleted(ctx))
	_, err = os.Stat(path)
	as.True(os.IsNotExist(err))

	_, err = st.All(ctx)
	as.ErrorIs(err, repro.ErrNotCreated)

	// dropping twice is fine
	as.NoError(st.EnsureDeleted(ctx))
}

func TestRepeatedRuns(t *testing.T) {
	as := require.New(t)
	dir := testGetDir(t)
	ctx := context.Background()

	counts := make([]int, 0)
	for i := 0; i < 2; i++ {
		st := testGetStore[int64](t, dir)
		_, ids := testSeed[int64](t, st)
		as.Equal([]int64{1, 2, 3}, ids)
		matched, err := st.WhereIDIn(ctx, ids)
		as.NoError(err)
		counts = append(counts, len(matched))
		as.NoError(st.EnsureDeleted(ctx))
		as.NoError(st.Close())
	}
	as.Equal([]int{3, 3}, counts)
}

func TestClosedStore(t *testing.T) {
	as := require.New(t)
	dir := testGetDir(t)
	st := testGetStore[int64](t, dir)
	ctx := context.Background()

	as.NoError(st.EnsureCreated(ctx))
	as.NoError(st.Close())

	_, err := st.Add(ctx, "foo")
	as.ErrorIs(err, repro.ErrClosed)
	as.ErrorIs(st.EnsureCreated(ctx), repro.ErrClosed)
	as.NoError(st.EnsureDeleted(ctx))
}
