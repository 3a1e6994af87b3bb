package repro

import "errors"

var (
	ErrUnknownBackend = errors.New("repro: unknown backend")
	ErrUnknownKeyKind = errors.New("repro: unknown key type")
	ErrNotCreated     = errors.New("repro: collection has not been created")
	ErrClosed         = errors.New("repro: store is closed")
)
