package logger

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
		"":        slog.LevelInfo,
	}

	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInit(t *testing.T) {
	Init("info")
	if Log == nil {
		t.Fatal("Init should set Log")
	}
}

func TestInitWithConfig_Formats(t *testing.T) {
	for _, format := range []string{"json", "text", ""} {
		InitWithConfig(Config{Level: "debug", Format: format, Output: "stderr"})
		if Log == nil {
			t.Errorf("format %q: Log should not be nil", format)
		}
	}
}

func TestInitWithConfig_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "showcase.log")

	InitWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logPath,
	})

	WithSession("b61e3f70-1111-2222-3333-444455556666").Info("instance generated",
		"problem_type", "tsp",
		"difficulty", "advanced",
	)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	line, _, _ := strings.Cut(string(data), "\n")
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if record["msg"] != "instance generated" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["session_id"] == nil {
		t.Error("session_id attribute missing")
	}
	if record["problem_type"] != "tsp" {
		t.Errorf("problem_type = %v", record["problem_type"])
	}
}

func TestBuildWriter_Fallbacks(t *testing.T) {
	if w := buildWriter(Config{Output: "stderr"}); w != os.Stderr {
		t.Error("stderr output should return os.Stderr")
	}
	if w := buildWriter(Config{Output: "stdout"}); w != os.Stdout {
		t.Error("stdout output should return os.Stdout")
	}
	if w := buildWriter(Config{}); w != os.Stdout {
		t.Error("empty output should default to os.Stdout")
	}
}

func TestLoggingFunctions(t *testing.T) {
	Init("debug")

	Debug("solve started", "route", "remote")
	Info("solve finished", "route", "fallback")
	Warn("solver unreachable", "endpoint", "localhost:9400")
	Error("export failed", "format", "pdf")
}

func TestDerivedLoggers(t *testing.T) {
	Init("info")

	if WithContext(context.Background(), "key", "value") == nil {
		t.Error("WithContext should return logger")
	}
	if WithRequestID("req-123") == nil {
		t.Error("WithRequestID should return logger")
	}
	if WithSession("session-123") == nil {
		t.Error("WithSession should return logger")
	}
}

func TestFatal(t *testing.T) {
	if os.Getenv("TEST_FATAL") == "1" {
		Init("info")
		Fatal("fatal message")
		return
	}

	// Fatal вызывает os.Exit, без subprocess не проверить
}
