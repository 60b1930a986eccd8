package logging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name  string
	level AtomicLevel
	inUTC bool

	appenders []Appender
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}

	return &impl{
		name:      newName,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
	}
}

func (imp *impl) Sync() error {
	var errs []error
	for _, appender := range imp.appenders {
		if err := appender.Sync(); err != nil {
			errs = append(errs, err)
		}
	}

	return multierr.Combine(errs...)
}

// AsZap tees every appender that is also a `zapcore.Core` into a fresh zap logger.
func (imp *impl) AsZap() *zap.SugaredLogger {
	var cores []zapcore.Core
	for _, appender := range imp.appenders {
		if core, ok := appender.(zapcore.Core); ok {
			cores = append(cores, core)
		}
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.IncreaseLevel(imp.level.Get().AsZap())).
		Sugar().Named(imp.name)
}

func (imp *impl) shouldLog(ctx context.Context, logLevel Level) bool {
	if IsDebugMode(ctx) {
		return true
	}
	return logLevel >= imp.level.Get()
}

func (imp *impl) newEntry(logLevel Level, msg string) zapcore.Entry {
	entry := zapcore.Entry{
		Level:      logLevel.AsZap(),
		Time:       time.Now(),
		LoggerName: imp.name,
		Message:    msg,
		Caller:     getCaller(),
	}
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	return entry
}

func (imp *impl) write(entry zapcore.Entry, fields []zapcore.Field) {
	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprint(os.Stderr, err)
		}
	}
}

// Odd elements of `keysAndValues` are keys, each followed by its value.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, len(keysAndValues)/2)
	for keyIdx := 0; keyIdx < len(keysAndValues); keyIdx += 2 {
		var keyStr string
		if stringer, ok := keysAndValues[keyIdx].(fmt.Stringer); ok {
			keyStr = stringer.String()
		} else {
			keyStr = fmt.Sprintf("%v", keysAndValues[keyIdx])
		}

		if keyIdx+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(keyStr, keysAndValues[keyIdx+1]))
		} else {
			fields = append(fields, zap.Any(keyStr, errors.New("unpaired log key")))
		}
	}
	return fields
}

func (imp *impl) logArgs(ctx context.Context, logLevel Level, args ...interface{}) {
	if imp.shouldLog(ctx, logLevel) {
		imp.write(imp.newEntry(logLevel, fmt.Sprint(args...)), nil)
	}
}

func (imp *impl) logf(ctx context.Context, logLevel Level, template string, args ...interface{}) {
	if imp.shouldLog(ctx, logLevel) {
		imp.write(imp.newEntry(logLevel, fmt.Sprintf(template, args...)), nil)
	}
}

func (imp *impl) logw(ctx context.Context, logLevel Level, msg string, keysAndValues ...interface{}) {
	if imp.shouldLog(ctx, logLevel) {
		imp.write(imp.newEntry(logLevel, msg), toFields(keysAndValues))
	}
}

func (imp *impl) Debug(args ...interface{})                   { imp.logArgs(context.Background(), DEBUG, args...) }
func (imp *impl) Debugf(template string, args ...interface{}) { imp.logf(context.Background(), DEBUG, template, args...) }
func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.logw(context.Background(), DEBUG, msg, keysAndValues...)
}

func (imp *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.logw(ctx, DEBUG, msg, keysAndValues...)
}

func (imp *impl) Info(args ...interface{})                   { imp.logArgs(context.Background(), INFO, args...) }
func (imp *impl) Infof(template string, args ...interface{}) { imp.logf(context.Background(), INFO, template, args...) }
func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.logw(context.Background(), INFO, msg, keysAndValues...)
}

func (imp *impl) CInfow(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.logw(ctx, INFO, msg, keysAndValues...)
}

func (imp *impl) Warn(args ...interface{})                   { imp.logArgs(context.Background(), WARN, args...) }
func (imp *impl) Warnf(template string, args ...interface{}) { imp.logf(context.Background(), WARN, template, args...) }
func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.logw(context.Background(), WARN, msg, keysAndValues...)
}

func (imp *impl) CWarnw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.logw(ctx, WARN, msg, keysAndValues...)
}

func (imp *impl) Error(args ...interface{})                   { imp.logArgs(context.Background(), ERROR, args...) }
func (imp *impl) Errorf(template string, args ...interface{}) { imp.logf(context.Background(), ERROR, template, args...) }
func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.logw(context.Background(), ERROR, msg, keysAndValues...)
}

func (imp *impl) CErrorw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.logw(ctx, ERROR, msg, keysAndValues...)
}

// getCaller skips the frames inside this package so the entry points at the caller of the
// public logging method.
func getCaller() zapcore.EntryCaller {
	const skip = 4
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return zapcore.EntryCaller{}
	}
	return zapcore.NewEntryCaller(pc, file, line, ok)
}
