package logging

import (
	"io"
	"os"

	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormatStr is the default time format string for log appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. This is a subset of the `zapcore.Core` interface.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed. E.g: at shutdown.
	Sync() error
}

func newEncoderConfig(levelEncoder zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(DefaultTimeFormatStr),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewStdoutAppender creates a new appender that outputs colored console logs to stdout.
func NewStdoutAppender() Appender {
	return NewWriterAppender(os.Stdout)
}

// NewWriterAppender creates a console appender writing to the given writer. Levels are not
// filtered here; the logger decides what reaches its appenders.
func NewWriterAppender(writer io.Writer) Appender {
	encoder := zapcore.NewConsoleEncoder(newEncoderConfig(zapcore.CapitalColorLevelEncoder))
	return zapcore.NewCore(encoder, zapcore.AddSync(writer), zapcore.DebugLevel)
}

// NewJSONAppender creates an appender that writes one JSON object per log entry.
func NewJSONAppender(writer io.Writer) Appender {
	encoder := zapcore.NewJSONEncoder(newEncoderConfig(zapcore.LowercaseLevelEncoder))
	return zapcore.NewCore(encoder, zapcore.AddSync(writer), zapcore.DebugLevel)
}
