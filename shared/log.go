package shared

import (
	"context"
	"os"

	"github.com/go-kit/kit/log"
)

const (
	LvlDebug = "DEBUG"
	LvlInfo  = "INFO"
	LvlWarn  = "WARNING"
	LvlErr   = "ERROR"
)

type contextKey string

const RequestIdKey = contextKey("requestId")

func NewLogger(component string) *Logger {
	var kitlogger log.Logger
	kitlogger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	kitlogger = log.With(kitlogger, "ts", log.DefaultTimestampUTC)
	kitlogger = log.With(kitlogger, "component", component)

	return &Logger{
		kitlogger,
	}
}

type Logger struct {
	log.Logger
}

func (l *Logger) Debug(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWithLvl(ctx, LvlDebug, message, keyvals)
}

func (l *Logger) Info(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWithLvl(ctx, LvlInfo, message, keyvals)
}

func (l *Logger) Warn(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWithLvl(ctx, LvlWarn, message, keyvals)
}

func (l *Logger) Err(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWithLvl(ctx, LvlErr, message, keyvals)
}

func (l *Logger) logWithLvl(ctx context.Context, lvl string, message string, keyvals []interface{}) {
	if requestId, ok := ctx.Value(RequestIdKey).(string); ok && requestId != "" {
		keyvals = append(keyvals, "requestId", requestId)
	}
	keyvals = append(keyvals, "level", lvl, "msg", message)
	l.Log(keyvals...)
}
