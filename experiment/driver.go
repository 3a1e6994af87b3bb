package experiment

import (
	"context"
	"fmt"
	"io"

	"go.miragespace.co/idcontains/config"
	"go.miragespace.co/idcontains/spec/repro"
	"go.miragespace.co/idcontains/store"

	"go.uber.org/zap"
)

type DriverConfig struct {
	Logger  *zap.Logger
	Logging config.Logging
	Out     io.Writer
	Options store.Options
	// Backends and Keys default to every backend and key type.
	Backends []repro.BackendKind
	Keys     []repro.KeyKind
}

func (c DriverConfig) validate() error {
	if c.Logger == nil {
		return fmt.Errorf("nil Logger is invalid")
	}
	if c.Out == nil {
		return fmt.Errorf("nil Out is invalid")
	}
	return nil
}

// Driver runs every key type against every backend, strictly one after the
// other.
type Driver struct {
	DriverConfig
}

func NewDriver(cfg DriverConfig) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(cfg.Backends) == 0 {
		cfg.Backends = repro.BackendKinds
	}
	if len(cfg.Keys) == 0 {
		cfg.Keys = repro.KeyKinds
	}
	return &Driver{DriverConfig: cfg}, nil
}

// RunAll returns one Outcome per (key type, backend) pair, key types in the
// outer loop. A failed run does not stop the ones after it; cancelling ctx
// does.
func (d *Driver) RunAll(ctx context.Context) []repro.Outcome {
	outcomes := make([]repro.Outcome, 0, len(d.Keys)*len(d.Backends))
	for _, key := range d.Keys {
		for _, backend := range d.Backends {
			if ctx.Err() != nil {
				return outcomes
			}
			outcomes = append(outcomes, d.RunOne(ctx, backend, key))
		}
	}
	return outcomes
}

func (d *Driver) RunOne(ctx context.Context, backend repro.BackendKind, key repro.KeyKind) repro.Outcome {
	logger := d.Logging.Scope(d.Logger,
		zap.String("backend", backend.String()),
		zap.String("key", key.String()),
	)
	logger.Info("Running experiment", zap.String("database", repro.DatabaseName(key)))
	fmt.Fprintf(d.Out, "=== %s / %s ===\n", backend, key)

	opts := d.Options
	opts.Logger = logger.Named(config.FrameworkLogger)

	var outcome repro.Outcome
	switch key {
	case repro.KeyInt64:
		outcome = runWith[int64](ctx, logger, d.Out, backend, opts)
	case repro.KeyGUID:
		outcome = runWith[repro.GUID](ctx, logger, d.Out, backend, opts)
	default:
		outcome = repro.Outcome{
			Backend: backend,
			Key:     key,
			Err:     fmt.Errorf("%w: %s", repro.ErrUnknownKeyKind, key),
		}
	}

	if outcome.Err != nil {
		logger.Error("Experiment failed", zap.Error(outcome.Err))
		fmt.Fprintf(d.Out, "error: %v\n\n", outcome.Err)
	}
	return outcome
}

func runWith[K repro.Key](ctx context.Context, logger *zap.Logger, out io.Writer, backend repro.BackendKind, opts store.Options) repro.Outcome {
	st, err := store.Open[K](backend, opts)
	if err != nil {
		return repro.Outcome{
			Backend: backend,
			Key:     repro.KindOf[K](),
			Err:     err,
		}
	}
	return Run(ctx, logger, out, st)
}
