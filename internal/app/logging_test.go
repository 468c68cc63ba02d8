package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, expected %q", tt.level, got, tt.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"Info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"ERROR", LogLevelError},
		{"unknown", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLogLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelDebug,
		Output: &buf,
		Prefix: "test",
	})

	logger.Debug("debug message")
	logger.Info("info %s %d", "message", 42)
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	for _, want := range []string{"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]", "test: ", "info message 42"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelWarn,
		Output: &buf,
	})

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")

	output := buf.String()
	if strings.Contains(output, "[DEBUG]") || strings.Contains(output, "[INFO]") {
		t.Errorf("expected debug and info to be filtered out:\n%s", output)
	}
	if !strings.Contains(output, "[WARN]") {
		t.Error("expected WARN in output")
	}

	logger.SetLevel(LogLevelDebug)
	if logger.Level() != LogLevelDebug {
		t.Errorf("Level() = %v", logger.Level())
	}
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("expected output after SetLevel")
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelInfo,
		Output: &buf,
	})

	logger.WithComponent("matcher").WithFields(map[string]any{
		"code":  "konami",
		"count": 2,
	}).Info("matched")

	// Fields are sorted by key.
	if !strings.Contains(buf.String(), "matched {code=konami, component=matcher, count=2}") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestLogger_DerivedShareLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelError,
		Output: &buf,
	})
	child := logger.WithComponent("bus")

	child.Info("hidden")
	logger.SetLevel(LogLevelInfo)
	child.Info("shown")

	output := buf.String()
	if strings.Contains(output, "hidden") || !strings.Contains(output, "shown") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestLogger_OutputAndDisable(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelInfo,
		Output: &buf1,
	})

	logger.Info("to buf1")
	logger.SetOutput(&buf2)
	logger.Info("to buf2")
	if buf1.Len() == 0 || buf2.Len() == 0 {
		t.Error("expected output in both buffers")
	}

	buf2.Reset()
	logger.Disable()
	logger.Info("should not appear")
	if buf2.Len() != 0 {
		t.Error("expected no output when disabled")
	}
	logger.Enable()
	logger.Info("should appear")
	if buf2.Len() == 0 {
		t.Error("expected output when enabled")
	}
}

func TestNullLogger(t *testing.T) {
	NullLogger.Debug("test")
	NullLogger.WithComponent("x").Error("test")
}

func TestGetLogger(t *testing.T) {
	logger := GetLogger()
	if logger == nil {
		t.Fatal("GetLogger() returned nil")
	}
	if logger != GetLogger() {
		t.Error("expected GetLogger() to return same instance")
	}

	custom := NewLogger(DefaultLoggerConfig())
	SetLogger(custom)
	defer SetLogger(logger)
	if GetLogger() != custom {
		t.Error("SetLogger did not replace the logger")
	}
}

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig()
	if cfg.Level != LogLevelInfo {
		t.Errorf("expected default level INFO, got %v", cfg.Level)
	}
	if cfg.Output == nil {
		t.Error("expected default output to be set")
	}
	if cfg.Prefix != "secretcode" {
		t.Errorf("expected prefix 'secretcode', got %q", cfg.Prefix)
	}
}
