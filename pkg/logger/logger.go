package logger

import "context"

type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Fatal(msg string, keysAndValues ...any)
	Sync() error
}

type contextKey struct{}

func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx or a no-op logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok {
		return l
	}
	return NewNopLogger()
}

type NopLogger struct{}

var _ Logger = (*NopLogger)(nil)

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (l *NopLogger) Debug(msg string, keysAndValues ...any) {}
func (l *NopLogger) Info(msg string, keysAndValues ...any)  {}
func (l *NopLogger) Warn(msg string, keysAndValues ...any)  {}
func (l *NopLogger) Error(msg string, keysAndValues ...any) {}
func (l *NopLogger) Fatal(msg string, keysAndValues ...any) {}
func (l *NopLogger) Sync() error                            { return nil }
