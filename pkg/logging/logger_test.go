package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/emojiblog/emojiblog/pkg/config"
)

func TestInitLogger_FileSink(t *testing.T) {
	oldLogger := Logger
	defer func() { Logger = oldLogger }()

	path := filepath.Join(t.TempDir(), "app.log")
	cfg := &config.LoggingConfig{
		Level:         "INFO",
		Format:        "json",
		FilePath:      path,
		FileMaxSizeMB: 1,
	}

	if err := InitLogger(cfg); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	WithComponent("test").Info("test message", zap.String("key", "value"))
	_ = Logger.Sync()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("Expected one log line in file")
	}

	var logObj map[string]interface{}
	if err := json.Unmarshal(scanner.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if logObj["message"] != "test message" {
		t.Errorf("Expected message 'test message', got: %v", logObj["message"])
	}
	if logObj["key"] != "value" {
		t.Errorf("Expected field 'key'='value', got: %v", logObj["key"])
	}
	if logObj["component"] != "test" {
		t.Errorf("Expected field 'component'='test', got: %v", logObj["component"])
	}
	if _, ok := logObj["timestamp"]; !ok {
		t.Error("Expected 'timestamp' field in log output")
	}
}

func TestInitLogger_LevelFilter(t *testing.T) {
	oldLogger := Logger
	defer func() { Logger = oldLogger }()

	if err := InitLogger(&config.LoggingConfig{Level: "ERROR", Format: "text"}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if Logger.Core().Enabled(zap.InfoLevel) {
		t.Error("Expected info level to be disabled at ERROR")
	}
	if !Logger.Core().Enabled(zap.ErrorLevel) {
		t.Error("Expected error level to be enabled at ERROR")
	}
}

func TestWithTraceID(t *testing.T) {
	oldLogger := Logger
	defer func() { Logger = oldLogger }()

	core, logs := observer.New(zap.DebugLevel)
	Logger = zap.New(core)

	WithTraceID("4bf92f3577b34da6a3ce929d0e0e4736").Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["trace_id"]; got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace_id = %v", got)
	}
}
