package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/utilities/timeutil"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name   string
		config logger.LoggerConfig
		debug  bool
	}{
		{name: "default level hides debug", config: logger.LoggerConfig{LogLevel: zerolog.NoLevel}},
		{name: "debug level shows debug", config: logger.LoggerConfig{LogLevel: zerolog.DebugLevel}, debug: true},
		{name: "error level hides debug", config: logger.LoggerConfig{LogLevel: zerolog.ErrorLevel}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := logger.NewFromConfig(tt.config).WithOutput(&buf)
			l.Debug("debug message")
			if got := strings.Contains(buf.String(), "debug message"); got != tt.debug {
				t.Errorf("debug visible = %v, want %v", got, tt.debug)
			}
		})
	}
}

func TestLoggerWithLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New().WithOutput(&buf).WithLevel(zerolog.ErrorLevel)

	l.Info("info message")
	l.Error(errors.New("test error"), "error message")

	output := buf.String()
	if strings.Contains(output, "info message") {
		t.Error("Info message should not appear when level is set to Error")
	}
	if !strings.Contains(output, "error message") || !strings.Contains(output, "test error") {
		t.Errorf("Expected error message and cause, got: %s", output)
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New().WithOutput(&buf)

	l.Infof("reveal accepted for %d shares", 3)

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("Log output is not valid JSON: %v", err)
	}
	if entry["level"] != "info" {
		t.Error("Expected level field to be 'info'")
	}
	if entry["message"] != "reveal accepted for 3 shares" {
		t.Errorf("unexpected message %v", entry["message"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("Expected time field to be present")
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New().WithOutput(&buf).WithFields(map[string]string{"service": "compliance-node"})

	l.Warn("warning")
	if !strings.Contains(buf.String(), `"service":"compliance-node"`) {
		t.Errorf("Expected field in output, got: %s", buf.String())
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New().WithOutput(&buf).Component("investigations")

	l.Info("opened")
	if !strings.Contains(buf.String(), `"component":"investigations"`) {
		t.Errorf("Expected component field, got: %s", buf.String())
	}
}

func TestLoggerConfigFormat(t *testing.T) {
	if got := (logger.LoggerConfigJson{Format: "Console"}).ConvertToDomain().Format; got != logger.FormatConsole {
		t.Errorf("expected console format, got %q", got)
	}
	if got := (logger.LoggerConfigJson{Format: "xml"}).ConvertToDomain().Format; got != logger.FormatJSON {
		t.Errorf("unknown formats fall back to json, got %q", got)
	}
}

func TestSinkReceivesMessages(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New().WithOutput(&buf).WithLevel(zerolog.InfoLevel)

	var got []string
	var levels []zerolog.Level
	logger.AddSinkToLoggerInstance(l, func(msg string, level zerolog.Level, ts timeutil.TimeUTC) {
		got = append(got, msg)
		levels = append(levels, level)
		if ts.IsZero() {
			t.Error("sink timestamp should be set")
		}
	})

	l.Debug("filtered")
	l.Infof("share %d revealed", 2)
	l.Log(zerolog.WarnLevel, "custom")

	if len(got) != 2 || got[0] != "share 2 revealed" || got[1] != "custom" {
		t.Fatalf("unexpected sink messages %v", got)
	}
	if levels[1] != zerolog.WarnLevel {
		t.Errorf("expected warn level, got %v", levels[1])
	}
}

func TestDefaultLogger(t *testing.T) {
	logger.InitDefaultLogger(logger.GlobalLoggerConfig{
		Args: []logger.LoggerArg{{Key: "service", Value: "test"}},
	})

	if logger.Default() == nil {
		t.Fatal("Expected default logger to exist, got nil")
	}
}
