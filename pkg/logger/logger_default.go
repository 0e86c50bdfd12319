package logger

import "sync"

type LoggerArg struct {
	Key   string
	Value string
}

type GlobalLoggerConfig struct {
	Config LoggerConfig
	Args   []LoggerArg
}

var (
	defaultLogger     *Logger
	onceLogger        sync.Once
	initializedLogger bool
)

func InitDefaultLogger(config GlobalLoggerConfig) {
	onceLogger.Do(func() {
		base := NewFromConfig(config.Config)
		fields := make(map[string]string, len(config.Args))
		for _, arg := range config.Args {
			fields[arg.Key] = arg.Value
		}
		defaultLogger = base.WithFields(fields)
		initializedLogger = true
	})
}

func Default() *Logger {
	if !initializedLogger {
		panic("default logger not initialized: call InitDefaultLogger() first")
	}
	return defaultLogger
}
