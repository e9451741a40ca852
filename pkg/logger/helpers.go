package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs one upstream HTTP exchange
func LogRequest(l Logger, method, url string, statusCode int, elapsed time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": elapsed.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.WarnWithFields("Upstream server error", fields)
	case statusCode >= 400:
		l.DebugWithFields("Upstream client error", fields)
	default:
		l.DebugWithFields("Upstream request completed", fields)
	}
}

// LogRateLimit logs a caller-side throttle wait
func LogRateLimit(l Logger, source string, waited time.Duration) {
	if waited < time.Millisecond {
		return
	}
	l.WithFields(map[string]interface{}{
		"source": source,
		"waited": waited,
		"action": "throttled",
	}).Debug("Waited for rate limiter")
}

// LogDiscovery logs the outcome of one discovery call
func LogDiscovery(l Logger, source, extractor string, items int, hasMore bool) {
	l.WithFields(map[string]interface{}{
		"source":    source,
		"extractor": extractor,
		"items":     items,
		"has_more":  hasMore,
	}).Info("Discovery page ready")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
