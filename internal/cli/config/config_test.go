package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := "baseURL: http://judge.example.com\nlogLevel: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://judge.example.com" {
		t.Errorf("baseURL: got %q", cfg.BaseURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("logLevel: got %q", cfg.LogLevel)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("timeout default: got %s, want %s", cfg.Timeout, DefaultTimeout)
	}
	if cfg.WatchTimeout != DefaultWatchTimeout {
		t.Errorf("watchTimeout default: got %s, want %s", cfg.WatchTimeout, DefaultWatchTimeout)
	}
	if cfg.TokenStatePath != DefaultTokenStatePath {
		t.Errorf("tokenStatePath default: got %q", cfg.TokenStatePath)
	}
	if cfg.PrettyJSON == nil || !*cfg.PrettyJSON {
		t.Error("prettyJSON should default to true")
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("baseURL: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for malformed yaml")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("baseURL: got %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("timeout: got %s", cfg.Timeout)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("logLevel: got %q", cfg.LogLevel)
	}
}
