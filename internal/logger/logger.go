package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// FieldBatch is the structured log field key for the batch identifier.
	FieldBatch = "batch_id"
	// FieldDocument is the structured log field key for a document name.
	FieldDocument = "document"
	// FieldIndex is the structured log field key for the upload order index.
	FieldIndex = "index"
)

// New builds a zap logger writing console or json output to stdout.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if json {
		encoding = "json"
	}

	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}

	return cfg.Build()
}

// OrNop returns the logger, or a no-op logger when nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// ForDocument attaches the document name and upload index to the logger.
func ForDocument(logger *zap.Logger, name string, index int) *zap.Logger {
	return OrNop(logger).With(zap.String(FieldDocument, name), zap.Int(FieldIndex, index))
}
