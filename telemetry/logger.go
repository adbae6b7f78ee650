package telemetry

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger with OTEL hooks
func NewLogger(component string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("component", component).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// Convenience methods for inventory operations

func (l *Logger) LogFetchStart(ctx context.Context, namespace, scope string) {
	l.WithContext(ctx).Debug().
		Str("namespace", namespace).
		Str("scope", scope).
		Msg("fetching from remote")
}

func (l *Logger) LogFetchComplete(ctx context.Context, namespace, scope string, count int, durationMs float64) {
	l.WithContext(ctx).Info().
		Str("namespace", namespace).
		Str("scope", scope).
		Int("items", count).
		Float64("duration_ms", durationMs).
		Msg("remote fetch complete")
}

func (l *Logger) LogFetchError(ctx context.Context, namespace, scope string, err error) {
	l.WithContext(ctx).Error().
		Err(err).
		Str("namespace", namespace).
		Str("scope", scope).
		Msg("remote fetch failed")
}

func (l *Logger) LogCacheHit(ctx context.Context, namespace, scope string) {
	l.WithContext(ctx).Debug().
		Str("namespace", namespace).
		Str("scope", scope).
		Msg("cache hit")
}

func (l *Logger) LogResourceSkipped(ctx context.Context, resourceID string, err error) {
	l.WithContext(ctx).Warn().
		Err(err).
		Str("resource_id", resourceID).
		Msg("resource skipped")
}
