package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if cfg.Port != 8043 {
		t.Errorf("Port = %d, want 8043", cfg.Port)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("FAUX_PORT", "9001")
	t.Setenv("FAUX_LOG_FILE", "/tmp/other.log")
	t.Setenv("FAUX_PACK_TIMEOUT", "5s")
	t.Setenv("FAUX_FALLBACK_ON_ERROR", "true")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9001 {
		t.Errorf("Port = %d, want 9001", cfg.Port)
	}
	if cfg.LogFile != "/tmp/other.log" {
		t.Errorf("LogFile = %q, want /tmp/other.log", cfg.LogFile)
	}
	if cfg.PackTimeout != 5*time.Second {
		t.Errorf("PackTimeout = %s, want 5s", cfg.PackTimeout)
	}
	if !cfg.FallbackOnError {
		t.Error("FallbackOnError = false, want true")
	}
}

func TestLoadLegacyPortEnv(t *testing.T) {
	t.Setenv("faux_port", "9002")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9002 {
		t.Errorf("Port = %d, want 9002", cfg.Port)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("FAUX_PORT", "9001")

	v := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(fs, v); err != nil {
		t.Fatalf("BindFlags failed: %v", err)
	}
	if err := fs.Parse([]string{"--port", "9100", "--packager", "tarball"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Port)
	}
	if cfg.Packager != "tarball" {
		t.Errorf("Packager = %q, want tarball", cfg.Packager)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faux.yaml")
	content := "port: 4873\nroot: /srv/packages\nupstream: https://npm.example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 4873 || cfg.Root != "/srv/packages" || cfg.Upstream != "https://npm.example.com" {
		t.Errorf("cfg = %+v, want values from file", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative port", func(c *Config) { c.Port = -1 }},
		{"huge port", func(c *Config) { c.Port = 70000 }},
		{"empty root", func(c *Config) { c.Root = "" }},
		{"bad upstream", func(c *Config) { c.Upstream = "registry.npmjs.org" }},
		{"negative timeout", func(c *Config) { c.PackTimeout = -time.Second }},
		{"negative breaker threshold", func(c *Config) { c.BreakerThreshold = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
