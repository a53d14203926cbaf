package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// BackendIDKey is the context key for the backend being imported from
	BackendIDKey contextKey = "backend_id"
	// ModelKey is the context key for the model being imported
	ModelKey contextKey = "model"
	// ExternalIDKey is the context key for the external record ID
	ExternalIDKey contextKey = "external_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if
// not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enrichedLogger := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// WithBackend adds the backend ID to context and returns enriched logger
func WithBackend(ctx context.Context, logger *zap.Logger, backendID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, BackendIDKey, backendID)
	enrichedLogger := logger.With(zap.String("backend_id", backendID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// WithRecord adds the model and external record ID to context and returns
// enriched logger. Every log line of one record import carries both.
func WithRecord(ctx context.Context, logger *zap.Logger, model, externalID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, ModelKey, model)
	ctx = context.WithValue(ctx, ExternalIDKey, externalID)
	enrichedLogger := logger.With(
		zap.String("model", model),
		zap.String("external_id", externalID),
	)
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetBackendID retrieves the backend ID from context
func GetBackendID(ctx context.Context) string {
	if backendID, ok := ctx.Value(BackendIDKey).(string); ok {
		return backendID
	}
	return ""
}

// GetModel retrieves the model from context
func GetModel(ctx context.Context) string {
	if model, ok := ctx.Value(ModelKey).(string); ok {
		return model
	}
	return ""
}

// GetExternalID retrieves the external record ID from context
func GetExternalID(ctx context.Context) string {
	if externalID, ok := ctx.Value(ExternalIDKey).(string); ok {
		return externalID
	}
	return ""
}

// ContextLogger is a wrapper that provides convenient logging with the
// import correlation fields carried by the context injected into every
// log entry.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger from the given context.
// Usage: logger.L(ctx).Info("message", zap.String("key", "value"))
//
// This automatically injects:
//   - request_id: if present in context
//   - backend_id: if present in context
//   - model and external_id: if present in context
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{
		ctx:    ctx,
		logger: FromContext(ctx),
	}
}

// WithLogger returns a ContextLogger using the provided logger instead of
// extracting from context. Useful when you have a pre-configured logger.
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	return &ContextLogger{
		ctx:    ctx,
		logger: logger,
	}
}

// enrichedLogger returns a logger enriched with the context fields.
func (cl *ContextLogger) enrichedLogger() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}

	if requestID := GetRequestID(cl.ctx); requestID != "" {
		l = l.With(zap.String("request_id", requestID))
	}
	if backendID := GetBackendID(cl.ctx); backendID != "" {
		l = l.With(zap.String("backend_id", backendID))
	}
	if model := GetModel(cl.ctx); model != "" {
		l = l.With(zap.String("model", model))
	}
	if externalID := GetExternalID(cl.ctx); externalID != "" {
		l = l.With(zap.String("external_id", externalID))
	}

	return l
}

// With creates a child ContextLogger with additional fields.
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{
		ctx:    cl.ctx,
		logger: cl.logger.With(fields...),
	}
}

// Debug logs a debug level message with context fields.
func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Debug(msg, fields...)
}

// Info logs an info level message with context fields.
func (cl *ContextLogger) Info(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Info(msg, fields...)
}

// Warn logs a warning level message with context fields.
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Warn(msg, fields...)
}

// Error logs an error level message with context fields.
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Error(msg, fields...)
}

// Fatal logs a fatal level message with context fields and then calls
// os.Exit(1).
func (cl *ContextLogger) Fatal(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Fatal(msg, fields...)
}

// Zap returns the underlying zap.Logger enriched with context fields.
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.enrichedLogger()
}

// Sugar returns a sugared logger enriched with context fields.
func (cl *ContextLogger) Sugar() *zap.SugaredLogger {
	return cl.enrichedLogger().Sugar()
}
