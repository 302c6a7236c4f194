package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	suvclient "github.com/MrEthical07/suvclient"
	"github.com/spf13/viper"
)

func TestLoadConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("expected no error from loadConfig(), got %v", err)
	}
	if cfg.Output != outputTable {
		t.Errorf("Output = %q, want %q", cfg.Output, outputTable)
	}
	if cfg.CookieBackend != string(suvclient.CookieBackendFile) {
		t.Errorf("CookieBackend = %q, want file", cfg.CookieBackend)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	cc := cfg.clientConfig()
	if err := cc.Validate(); err != nil {
		t.Errorf("default client config invalid: %v", err)
	}
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := "base_url: https://suv.example.com/\ntimeout: 5s\noutput: yaml\ncookie_backend: memory\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SUV_OUTPUT", "json")

	v := viper.New()
	setDefaults(v)
	if err := readConfigFile(v, file); err != nil {
		t.Fatalf("readConfigFile: %v", err)
	}
	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.BaseURL != "https://suv.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.Output != outputJSON {
		t.Errorf("Output = %q, env should win over file", cfg.Output)
	}
	if cfg.CookieBackend != "memory" {
		t.Errorf("CookieBackend = %q, want memory", cfg.CookieBackend)
	}
}

func TestReadConfigFileMissingExplicitFile(t *testing.T) {
	v := viper.New()
	if err := readConfigFile(v, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"output", "output", "xml"},
		{"backend", "cookie_backend", "sqlite"},
		{"redis without addr", "cookie_backend", "redis"},
		{"timezone", "timezone", "Mars/Olympus"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := viper.New()
			setDefaults(v)
			v.Set(tc.key, tc.val)
			if _, err := loadConfig(v); err == nil {
				t.Fatalf("expected %s=%v to be rejected", tc.key, tc.val)
			}
		})
	}
}
