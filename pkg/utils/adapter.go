package utils

import (
	"context"

	"go.uber.org/zap"
)

// ZapAdapter adapts zap.Logger to the key/value Logger interfaces used by services
type ZapAdapter struct {
	logger *zap.Logger
}

// NewZapAdapter wraps logger
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{logger: logger}
}

func (a *ZapAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, ToZapFields(keysAndValues...)...)
}

func (a *ZapAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, ToZapFields(keysAndValues...)...)
}

// ToZapFields converts key-value pairs to zap fields, skipping non-string keys
func ToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

// LogReporter reports remote failures to the log, keeping the original error
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter creates a LogReporter
func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs err at error level
func (r *LogReporter) Report(ctx context.Context, err error) {
	r.logger.Error("Remote store call failed", zap.Error(err))
}
