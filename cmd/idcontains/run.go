package idcontains

import (
	"fmt"
	"os"

	"go.miragespace.co/idcontains/config"
	"go.miragespace.co/idcontains/experiment"
	"go.miragespace.co/idcontains/spec/repro"
	"go.miragespace.co/idcontains/store"
	"go.miragespace.co/idcontains/store/postgres"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run the id-set containment experiments",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "backend",
				Usage:    "backend to run against: server, memory or sqlite. Repeat for more than one",
				Value:    cli.NewStringSlice(backendNames()...),
				Category: "Experiment Options",
			},
			&cli.StringSliceFlag{
				Name:     "key",
				Usage:    "key type to run with: Int64 or Guid. Repeat for more than one",
				Value:    cli.NewStringSlice(keyNames()...),
				Category: "Experiment Options",
			},
			&cli.BoolFlag{
				Name:     "strict",
				Usage:    "exit non-zero when any outcome differs from the known behavior, including the known issue being fixed",
				Category: "Experiment Options",
			},
			&cli.PathFlag{
				Name:     "data-dir",
				Aliases:  []string{"data"},
				Value:    ".",
				Usage:    "directory the {KeyType}IdContainsTest.db files are created in and removed from",
				Category: "Backend Options",
			},
			&cli.PathFlag{
				Name:     "cache-dir",
				Usage:    "directory to cache the compiled SQLite module in. Empty keeps it in memory",
				Category: "Backend Options",
			},
			&cli.StringFlag{
				Name:     "server-dsn",
				Value:    postgres.DefaultDSN,
				Usage:    "DSN of the relational server's maintenance database; {KeyType}IdContainsTest is created next to it",
				EnvVars:  []string{"IDCONTAINS_SERVER_DSN"},
				Category: "Backend Options",
			},
		},
		Action: cmdRun,
	}
}

func backendNames() []string {
	names := make([]string, len(repro.BackendKinds))
	for i, b := range repro.BackendKinds {
		names[i] = b.String()
	}
	return names
}

func keyNames() []string {
	names := make([]string, len(repro.KeyKinds))
	for i, k := range repro.KeyKinds {
		names[i] = k.String()
	}
	return names
}

func cmdRun(ctx *cli.Context) error {
	logger := ctx.App.Metadata["logger"].(*zap.Logger)
	logging := ctx.App.Metadata["logging"].(config.Logging)
	defer logger.Sync()

	backends := make([]repro.BackendKind, 0)
	for _, name := range ctx.StringSlice("backend") {
		b, err := repro.ParseBackendKind(name)
		if err != nil {
			return err
		}
		backends = append(backends, b)
	}
	keys := make([]repro.KeyKind, 0)
	for _, name := range ctx.StringSlice("key") {
		k, err := repro.ParseKeyKind(name)
		if err != nil {
			return err
		}
		keys = append(keys, k)
	}

	driver, err := experiment.NewDriver(experiment.DriverConfig{
		Logger:  logger,
		Logging: logging,
		Out:     os.Stdout,
		Options: store.Options{
			DataDir:   ctx.Path("data-dir"),
			CacheDir:  ctx.Path("cache-dir"),
			ServerDSN: ctx.String("server-dsn"),
		},
		Backends: backends,
		Keys:     keys,
	})
	if err != nil {
		return err
	}

	outcomes := driver.RunAll(ctx.Context)
	experiment.Summarize(os.Stdout, outcomes, term.IsTerminal(int(os.Stdout.Fd())))

	if err := ctx.Context.Err(); err != nil {
		return err
	}
	if failed := experiment.Failed(outcomes); failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d experiments failed", failed, len(outcomes)), 1)
	}
	if ctx.Bool("strict") {
		if n := experiment.Unexpected(outcomes); n > 0 {
			return cli.Exit(fmt.Sprintf("%d of %d experiments did not behave as expected", n, len(outcomes)), 2)
		}
	}
	return nil
}
