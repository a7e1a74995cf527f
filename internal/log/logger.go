package log

import (
	"github.com/mattn/go-colorable"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
)

// NewLogger replaces the global zap logger with one writing JSON lines to path and coloured text to stdout.
// Every entry carries the given fields.
func NewLogger(path string, debug bool, fields ...zap.Field) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		level.SetLevel(zap.DebugLevel)
	}

	encoding := zap.NewProductionEncoderConfig()
	encoding.EncodeTime = zapcore.ISO8601TimeEncoder
	encoding.MessageKey = "message"
	encoding.TimeKey = "time"
	jsonEncoder := zapcore.NewJSONEncoder(encoding)

	encoding.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoding.EncodeCaller = zapcore.ShortCallerEncoder

	logger := zap.New(
		zapcore.NewTee(
			zapcore.NewCore(jsonEncoder, zapcore.AddSync(file), level),
			zapcore.NewCore(zapcore.NewConsoleEncoder(encoding), zapcore.AddSync(colorable.NewColorableStdout()), level),
		),
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	).With(fields...)

	zap.ReplaceGlobals(logger)

	return nil
}

// Logger is the printf style logger expected by client libraries such as olivere/elastic.
type Logger interface {
	Printf(format string, v ...interface{})
}
