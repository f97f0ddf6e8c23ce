package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{Debug: false, ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Debug("debug message", "date", "2026-02-20")
	Info("info message")
	Warn("warn message", "error", "boom")
	Error("error message")
}

func TestWithCarriesFields(t *testing.T) {
	if err := Init(Config{Debug: true, ConfigDir: t.TempDir()}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	child := With("run", "abc")
	if child == nil {
		t.Fatal("With returned nil after Init")
	}
	child.Info("reconcile started")
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// None of these may panic before Init.
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
	child := With("k", "v")
	if child == nil {
		t.Fatal("With returned nil before Init")
	}
	child.Warn("discarded")
}

func TestInitLevel(t *testing.T) {
	dir := t.TempDir()
	if err := Init(Config{ConfigDir: dir, Level: "info"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if Logger.GetLevel() != log.InfoLevel {
		t.Errorf("expected info level, got %v", Logger.GetLevel())
	}
	if want := filepath.Join(dir, "logs", "ibadah.log"); Path() != want {
		t.Errorf("expected log path %s, got %s", want, Path())
	}

	if err := Init(Config{ConfigDir: dir, Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
