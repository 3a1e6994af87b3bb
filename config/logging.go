package config

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
	"moul.io/zapfilter"
)

// FrameworkLogger is the name of the child logger that ORM and driver logs are
// written to. Its level is governed by LogLevel.Framework.
const FrameworkLogger = "gorm"

type LogLevel struct {
	Default   string `yaml:"default" json:"default"`
	Framework string `yaml:"framework" json:"framework"`
}

type Logging struct {
	IncludeScopes bool     `yaml:"includeScopes" json:"includeScopes"`
	LogLevel      LogLevel `yaml:"logLevel" json:"logLevel"`
}

func DefaultLogging() Logging {
	return Logging{
		IncludeScopes: false,
		LogLevel: LogLevel{
			Default:   "Debug",
			Framework: "Information",
		},
	}
}

// LoadLogging overlays the YAML document at path on DefaultLogging. An empty
// path returns the defaults.
func LoadLogging(path string) (Logging, error) {
	cfg := DefaultLogging()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	var doc struct {
		Logging Logging `yaml:"logging"`
	}
	doc.Logging = cfg
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return cfg, fmt.Errorf("decoding logging config: %w", err)
	}
	if err := doc.Logging.validate(); err != nil {
		return cfg, err
	}
	return doc.Logging, nil
}

func (l Logging) validate() error {
	if _, err := ParseLevel(l.LogLevel.Default); err != nil {
		return fmt.Errorf("logLevel.default: %w", err)
	}
	if _, err := ParseLevel(l.LogLevel.Framework); err != nil {
		return fmt.Errorf("logLevel.framework: %w", err)
	}
	return nil
}

// ParseLevel accepts both zap level names and the Trace..Critical/None
// vocabulary. None maps to a level that nothing reaches.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(name) {
	case "trace", "debug":
		return zapcore.DebugLevel, nil
	case "information", "info", "":
		return zapcore.InfoLevel, nil
	case "warning", "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "critical", "fatal":
		return zapcore.FatalLevel, nil
	case "none", "off":
		return zapcore.InvalidLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// MinLevel is the lowest level any logger may emit at; the core built from
// it is narrowed further by Apply.
func (l Logging) MinLevel() zapcore.Level {
	def, _ := ParseLevel(l.LogLevel.Default)
	fw, _ := ParseLevel(l.LogLevel.Framework)
	return min(def, fw)
}

// Apply wraps the core of base so that entries from FrameworkLogger and its
// children are held to the framework level and everything else to the
// default level.
func (l Logging) Apply(base *zap.Logger) (*zap.Logger, error) {
	def, err := ParseLevel(l.LogLevel.Default)
	if err != nil {
		return nil, err
	}
	fw, err := ParseLevel(l.LogLevel.Framework)
	if err != nil {
		return nil, err
	}
	core := zapfilter.NewFilteringCore(base.Core(), func(e zapcore.Entry, _ []zapcore.Field) bool {
		if isFramework(e.LoggerName) {
			return e.Level >= fw
		}
		return e.Level >= def
	})
	return base.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core {
		return core
	})), nil
}

func isFramework(name string) bool {
	return name == FrameworkLogger || strings.HasPrefix(name, FrameworkLogger+".")
}

// Scope attaches fields to logger only when scopes are enabled.
func (l Logging) Scope(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if !l.IncludeScopes {
		return logger
	}
	return logger.With(fields...)
}
