package store

import (
	"testing"

	"go.miragespace.co/idcontains/spec/repro"
	"go.miragespace.co/idcontains/store/postgres"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpen(t *testing.T) {
	as := require.New(t)

	opts := Options{
		Logger:    zap.NewNop(),
		DataDir:   t.TempDir(),
		ServerDSN: postgres.DefaultDSN,
	}

	for _, backend := range repro.BackendKinds {
		st, err := Open[repro.GUID](backend, opts)
		as.NoError(err, backend)
		as.Equal(backend, st.Backend())
		as.NoError(st.Close())
	}
}

func TestOpenUnknown(t *testing.T) {
	as := require.New(t)

	_, err := Open[int64]("oracle", Options{})
	as.ErrorIs(err, repro.ErrUnknownBackend)
}

func TestOpenMissingParameters(t *testing.T) {
	as := require.New(t)

	_, err := Open[int64](repro.BackendSQLite, Options{})
	as.Error(err)

	_, err = Open[int64](repro.BackendServer, Options{})
	as.Error(err)

	// the in-process store needs nothing
	st, err := Open[int64](repro.BackendMemory, Options{})
	as.NoError(err)
	as.NoError(st.Close())
}
