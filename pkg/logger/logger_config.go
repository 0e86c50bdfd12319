package logger

import (
	"strings"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

type LoggerConfigJson struct {
	LogLevel int8   `json:"log_level"`
	Format   string `json:"format,omitempty"`
}

type LoggerConfig struct {
	LogLevel zerolog.Level
	Format   string
}

func (lcj LoggerConfigJson) ConvertToDomain() LoggerConfig {
	format := strings.ToLower(lcj.Format)
	if format != FormatConsole {
		format = FormatJSON
	}
	return LoggerConfig{
		LogLevel: zerolog.Level(lcj.LogLevel),
		Format:   format,
	}
}
