package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process logger handed to every component
type Logger struct {
	*zap.Logger
}

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	OutputPaths []string
}

// DefaultConfig is JSON at info level on stdout.
func DefaultConfig() Config {
	return Config{Level: "info", OutputPaths: []string{"stdout"}}
}

// DevelopmentConfig is coloured console output at debug level.
func DevelopmentConfig() Config {
	return Config{Level: "debug", Development: true, OutputPaths: []string{"stdout"}}
}

// ConfigFor picks the preset for the mode and applies level on top of it.
// An empty level keeps the preset's.
func ConfigFor(level string, development bool) Config {
	cfg := DefaultConfig()
	if development {
		cfg = DevelopmentConfig()
	}
	if level != "" && !development {
		cfg.Level = level
	}
	return cfg
}

// New builds a logger from cfg.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stdout"}
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Development = cfg.Development
	zcfg.OutputPaths = cfg.OutputPaths
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.DisableStacktrace = !cfg.Development
	zcfg.Sampling = nil
	zcfg.Encoding = "json"
	zcfg.EncoderConfig = jsonEncoder()
	if cfg.Development {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = consoleEncoder()
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: logger}, nil
}

// NewDefault builds DefaultConfig, or a no-op logger if that fails.
func NewDefault() *Logger {
	return mustOrNop(New(DefaultConfig()))
}

// NewDevelopment builds DevelopmentConfig, or a no-op logger if that fails.
func NewDevelopment() *Logger {
	return mustOrNop(New(DevelopmentConfig()))
}

func mustOrNop(l *Logger, err error) *Logger {
	if err != nil {
		return Nop()
	}
	return l
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Wrap adapts an existing zap logger, e.g. one built on an observer core.
func Wrap(l *zap.Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return &Logger{Logger: l}
}

// ParseLevel converts a level name to zapcore.Level, ignoring case.
func ParseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// Field keys shared by every component, so one source or run can be
// followed across the pipeline.
const (
	KeyServiceID = "service_id"
	KeyRunID     = "run_id"
	KeyRequestID = "request_id"
)

// ServiceID tags an entry with a content source.
func ServiceID(id string) zap.Field { return zap.String(KeyServiceID, id) }

// RunID tags an entry with an aggregation run.
func RunID(id string) zap.Field { return zap.String(KeyRunID, id) }

// RequestID tags an entry with an inbound request.
func RequestID(id string) zap.Field { return zap.String(KeyRequestID, id) }

func jsonEncoder() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder
	return enc
}

func consoleEncoder() zapcore.EncoderConfig {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder
	return enc
}
