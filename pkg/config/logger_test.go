package config

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger_JSONFormat(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("expected info level enabled")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level disabled at info")
	}
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level enabled")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(LoggingConfig{Level: "shout", Format: "json"})
	if err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
