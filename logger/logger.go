package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger bundles the structured *zap.Logger this process logs through
// with its Sugared counterpart, so call sites that want Printf-style
// formatting (Infof, Errorf, …) don't need a second construction step.
type Logger struct {
	*zap.Logger
	*zap.SugaredLogger
}

// New builds a Logger writing JSON lines to stdout at level (one of
// "debug", "info", "warn", "error", case-insensitive).
func New(level string) (*Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		zapLevel,
	)

	zapLogger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &Logger{Logger: zapLogger, SugaredLogger: zapLogger.Sugar()}, nil
}

// requestLoggerKey is the context key the HTTP front-end stashes a
// per-request logger under, so a handler several calls deep can log
// with that request's correlation id attached without the front-end
// threading a *zap.Logger through every function signature in between.
type requestLoggerKey struct{}

// WithRequestLogger returns a copy of ctx carrying reqLog. The HTTP
// front-end calls this once per request, immediately after deriving
// reqLog from the request's correlation id via WithRequestID.
func WithRequestLogger(ctx context.Context, reqLog *zap.Logger) context.Context {
	return context.WithValue(ctx, requestLoggerKey{}, reqLog)
}

// FromContext returns the logger WithRequestLogger attached to ctx, or
// fallback.Logger if ctx never carried one - a handler invoked directly
// in a test, bypassing the HTTP front-end, hits this path. A nil
// fallback (also common in tests that don't care about log output)
// yields a no-op logger rather than a nil-pointer panic.
func FromContext(ctx context.Context, fallback *Logger) *zap.Logger {
	if l, ok := ctx.Value(requestLoggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback.Logger
}

// WithRequestID returns a copy of l tagged with a request-id field, so
// every subsequent log line in a single request's lifetime carries it.
func WithRequestID(l *zap.Logger, reqID string) *zap.Logger {
	return l.With(zap.String("req_id", reqID))
}

// Flush forces any buffered log entries to be written.
// Call this from main just before the program exits.
func Flush(l *zap.Logger) {
	if err := l.Sync(); err != nil {
		// zap's Sync can return "sync: invalid argument" on Windows when
		// the logger has no file output; there's nothing to recover from.
		_ = err
	}
}
