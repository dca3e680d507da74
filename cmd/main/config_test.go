package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kmerspace.json")
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.Engine.Alphabet != kmer.DefaultProteinSymbols || config.Batch.TableColumns != 23 {
		t.Errorf("unexpected defaults: %+v %+v", config.Engine, config.Batch)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected default config file to be written: %v", err)
	}

	// A second load reads the file back.
	again, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("second LoadConfig() failed: %v", err)
	}
	if again.Engine.Domain != "proteins" {
		t.Errorf("expected domain proteins, got %q", again.Engine.Domain)
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kmerspace.json")
	data := `{"log_level": "debug", "batch_config": {"workers": 9}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.LogLevel != "debug" || config.Batch.Workers != 9 {
		t.Errorf("expected file values, got %q and %d", config.LogLevel, config.Batch.Workers)
	}
	if config.Batch.OutputDir != "./out" || config.Engine == nil || config.Store == nil {
		t.Errorf("expected defaults for unset values, got %+v", config)
	}
}

func TestLoadConfigRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kmerspace.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected an error for invalid json")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}
