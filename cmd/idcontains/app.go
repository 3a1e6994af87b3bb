package idcontains

import (
	"fmt"
	"runtime"

	"go.miragespace.co/idcontains/config"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Build = "head"
)

var (
	App = cli.App{
		Name:            "idcontains",
		Usage:           fmt.Sprintf("build for %s on %s", runtime.GOARCH, runtime.GOOS),
		Version:         Build,
		HideHelpCommand: true,
		Description: `Inserts the same three records into every backend, once with int64 keys and once with GUID keys,
	then fetches them back by id-set and compares counts. The file-based engine is expected to return
	nothing for GUID keys; every other combination should return all three records.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Value: false,
				Usage: "use the development log encoder",
			},
			&cli.PathFlag{
				Name:  "config",
				Usage: "optional YAML file overriding the logging configuration",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
		},
		DefaultCommand: "run",
		Before:         ConfigLogger,
	}
)

func ConfigLogger(ctx *cli.Context) error {
	logging, err := config.LoadLogging(ctx.Path("config"))
	if err != nil {
		return fmt.Errorf("loading logging config: %w", err)
	}

	var cfg zap.Config
	if ctx.Bool("verbose") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(logging.MinLevel())
	// stdout is reserved for experiment output
	cfg.OutputPaths = []string{"stderr"}
	base, err := cfg.Build()
	if err != nil {
		return err
	}
	logger, err := logging.Apply(base)
	if err != nil {
		return err
	}
	_, err = zap.RedirectStdLogAt(logger.With(zap.String("subsystem", "unknown")), zapcore.InfoLevel)
	if err != nil {
		return fmt.Errorf("redirecting stdlog output: %w", err)
	}

	ctx.App.Metadata["logger"] = logger
	ctx.App.Metadata["logging"] = logging

	logger.Debug("idcontains: logger configured",
		zap.String("default", logging.LogLevel.Default),
		zap.String("framework", logging.LogLevel.Framework),
		zap.Bool("includeScopes", logging.IncludeScopes),
	)
	return nil
}
