package log

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _logger *zap.Logger
var defaultlogger *zap.Logger

type contextKey int

const (
	contextKeyFields contextKey = iota
)

func onK8S() bool {
	_, err := os.Stat("/var/run/secrets/kubernetes.io")
	return !os.IsNotExist(err)
}

func init() {
	Structured()
}

func setLogger(l *zap.Logger) {
	defaultlogger = l
}
func resetLogger() {
	defaultlogger = _logger
}

// level returns the level configured with the LOGLEVEL environment variable (debug by default)
func level() zap.AtomicLevel {
	lvl := zap.NewAtomicLevelAt(zap.DebugLevel)
	if s := os.Getenv("LOGLEVEL"); s != "" {
		if err := lvl.UnmarshalText([]byte(s)); err != nil {
			lvl = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
	}
	return lvl
}

func build(cfg zap.Config, enc zapcore.EncoderConfig) {
	enc.LevelKey = "severity"
	enc.StacktraceKey = ""
	enc.MessageKey = "message"
	cfg.EncoderConfig = enc
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.Level = level()
	var err error
	_logger, err = cfg.Build()
	if err != nil {
		panic(err)
	}
	defaultlogger = _logger
}

// Structured sets output to be JSON encoded (workers)
func Structured() {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	if onK8S() {
		//log collection in k8s handles timestamps
		enc.TimeKey = ""
	} else {
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	build(zap.NewProductionConfig(), enc)
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02T15:04:05.000"))
}

// Console sets output to be human-readable (command line)
func Console() {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = timeEncoder
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	build(zap.NewDevelopmentConfig(), enc)
}

// Logger returns a logger that will print fields previously added to the context
func Logger(ctx context.Context) *zap.Logger {
	flds := ctx.Value(contextKeyFields)
	if flds != nil {
		fflds := flds.([]zap.Field)
		return defaultlogger.With(fflds...)
	}
	return defaultlogger
}

// With adds a key=value field to the returned context
func With(ctx context.Context, key string, value interface{}) context.Context {
	fld := zap.Any(key, value)
	return WithFields(ctx, fld)
}

// CopyContext returns a context derived from dst that contains the eventual logging
// keys that are contained in ctx
func CopyContext(ctx context.Context, dst context.Context) context.Context {
	cflds := ctx.Value(contextKeyFields)
	if cflds == nil {
		return dst
	}
	flds := append([]zapcore.Field{}, cflds.([]zapcore.Field)...)
	if cdflds := dst.Value(contextKeyFields); cdflds != nil {
		flds = append(flds, cdflds.([]zapcore.Field)...)
	}
	return context.WithValue(dst, contextKeyFields, flds)
}

// WithFields adds fields to the returned context
func WithFields(ctx context.Context, fields ...zapcore.Field) context.Context {
	flds := ctx.Value(contextKeyFields)
	var fflds []zap.Field
	if flds != nil {
		fflds = append(fflds, flds.([]zap.Field)...)
	}
	fflds = append(fflds, fields...)
	return context.WithValue(ctx, contextKeyFields, fflds)
}

// Elapsed logs at debug level the duration of a named step, started at start.
// Usage: defer log.Elapsed(ctx, "read", time.Now())
func Elapsed(ctx context.Context, step string, start time.Time) time.Duration {
	d := time.Since(start)
	Logger(ctx).Debug("step done", zap.String("step", step), zap.Duration("duration", d))
	return d
}

func Fatal(msg string, fields ...zap.Field) {
	defaultlogger.Fatal(msg, fields...)
}
