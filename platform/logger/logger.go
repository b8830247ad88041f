// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// TraceIDKey is the context key for trace ID
	TraceIDKey contextKey = "trace_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and trace_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("trace_id", traceID)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// ProviderCall logs an outbound provider call with its outcome.
func (l *Logger) ProviderCall(provider, operation string, status int, latency time.Duration) {
	l.Info("provider_call",
		slog.String("provider", provider),
		slog.String("operation", operation),
		slog.Int("status", status),
		slog.Float64("latency_ms", float64(latency.Milliseconds())),
	)
}

// ProviderError logs a failed outbound provider call.
func (l *Logger) ProviderError(provider, operation string, err error) {
	l.Error("provider_error",
		slog.String("provider", provider),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitHit logs an upstream rate-limit signal for an operation key.
func (l *Logger) RateLimitHit(key string, cooldownUntil time.Time) {
	l.Warn("rate_limit_hit",
		slog.String("key", key),
		slog.Time("cooldown_until", cooldownUntil),
	)
}

// CacheEvent logs a cache hit or miss for a search key.
func (l *Logger) CacheEvent(tier, key string, hit bool) {
	l.Debug("cache_event",
		slog.String("tier", tier),
		slog.String("key", key),
		slog.Bool("hit", hit),
	)
}

// FallbackUsed logs that a search was served from generated data.
func (l *Logger) FallbackUsed(category, reason string, count int) {
	l.Warn("fallback_used",
		slog.String("category", category),
		slog.String("reason", reason),
		slog.Int("count", count),
	)
}

// SchemaDrop logs a provider record rejected by schema validation.
func (l *Logger) SchemaDrop(provider, reason string) {
	l.Debug("schema_drop",
		slog.String("provider", provider),
		slog.String("reason", reason),
	)
}
