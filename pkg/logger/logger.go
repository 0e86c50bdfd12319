package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities/timeutil"
)

type Logger struct {
	zl   zerolog.Logger
	sink SinkFunc
}

func base(w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Logger()
}

func New() *Logger {
	return &Logger{zl: base(os.Stdout)}
}

// NewFromConfig defaults to info level and JSON lines on stdout.
func NewFromConfig(cfg LoggerConfig) *Logger {
	if cfg.LogLevel == zerolog.NoLevel {
		cfg.LogLevel = zerolog.InfoLevel
	}

	l := &Logger{zl: base(os.Stdout).Level(cfg.LogLevel)}
	return l.WithFormat(cfg.Format)
}

// WithFormat switches stdout output to the console writer for
// FormatConsole; anything else keeps JSON lines.
func (l *Logger) WithFormat(format string) *Logger {
	if format == FormatConsole {
		l.zl = l.zl.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return l
}

func (l *Logger) WithOutput(w io.Writer) *Logger {
	l.zl = l.zl.Output(w)
	return l
}

func (l *Logger) WithLevel(level zerolog.Level) *Logger {
	l.zl = l.zl.Level(level)
	return l
}

// WithFields returns a child logger carrying the given string fields. The
// sink is shared with the parent.
func (l *Logger) WithFields(kv map[string]string) *Logger {
	ctx := l.zl.With()
	for k, v := range kv {
		ctx = ctx.Str(k, v)
	}
	return &Logger{zl: ctx.Logger(), sink: l.sink}
}

// Component tags every line with the subsystem that wrote it.
func (l *Logger) Component(name string) *Logger {
	return l.WithFields(map[string]string{"component": name})
}

func (l *Logger) With() zerolog.Context {
	return l.zl.With()
}

func (l *Logger) Debug(msg string) {
	l.zl.Debug().Msg(msg)
	l.activateSink(msg, zerolog.DebugLevel)
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.zl.Debug().Msgf(format, v...)
	l.activateSinkFormatted(zerolog.DebugLevel, format, v...)
}

func (l *Logger) Info(msg string) {
	l.zl.Info().Msg(msg)
	l.activateSink(msg, zerolog.InfoLevel)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
	l.activateSinkFormatted(zerolog.InfoLevel, format, v...)
}

func (l *Logger) Warn(msg string) {
	l.zl.Warn().Msg(msg)
	l.activateSink(msg, zerolog.WarnLevel)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.zl.Warn().Msgf(format, v...)
	l.activateSinkFormatted(zerolog.WarnLevel, format, v...)
}

func (l *Logger) Error(err error, msg string) {
	l.zl.Error().Err(err).Msg(msg)
	l.activateSink(msg, zerolog.ErrorLevel)
}

func (l *Logger) Errorf(err error, format string, v ...interface{}) {
	l.zl.Error().Err(err).Msgf(format, v...)
	l.activateSinkFormatted(zerolog.ErrorLevel, format, v...)
}

func (l *Logger) Fatal(err error, msg string) {
	l.activateSink(msg, zerolog.FatalLevel)
	l.zl.Fatal().Err(err).Msg(msg)
}

func (l *Logger) Fatalf(err error, format string, v ...interface{}) {
	l.activateSinkFormatted(zerolog.FatalLevel, format, v...)
	l.zl.Fatal().Err(err).Msgf(format, v...)
}

func (l *Logger) Log(level zerolog.Level, msg string) {
	l.zl.WithLevel(level).Msg(msg)
	l.activateSink(msg, level)
}

func (l *Logger) Logf(level zerolog.Level, format string, v ...interface{}) {
	l.zl.WithLevel(level).Msgf(format, v...)
	l.activateSinkFormatted(level, format, v...)
}

func now() timeutil.TimeUTC { return timeutil.NowUTC() }
