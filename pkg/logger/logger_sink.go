package logger

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities/timeutil"
)

// SinkFunc receives every message after it is written to the zerolog output.
type SinkFunc func(string, zerolog.Level, timeutil.TimeUTC)

func AddSinkToLoggerInstance(loggerInstance *Logger, sinkFunction SinkFunc) {
	loggerInstance.sink = sinkFunction
}

func (l *Logger) activateSinkFormatted(level zerolog.Level, format string, v ...interface{}) {
	if l.sink == nil {
		return
	}
	l.activateSink(fmt.Sprintf(format, v...), level)
}

func (l *Logger) activateSink(msg string, level zerolog.Level) {
	if l.sink != nil && level >= l.zl.GetLevel() {
		l.sink(msg, level, now())
	}
}
