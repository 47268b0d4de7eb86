package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IndexWidth != 4 {
		t.Errorf("IndexWidth = %d, want 4", cfg.IndexWidth)
	}
	if cfg.MaxInputSize != DefaultMaxInputSize {
		t.Errorf("MaxInputSize = %d, want %d", cfg.MaxInputSize, DefaultMaxInputSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"width 8", func(c *Config) { c.IndexWidth = 8 }, true},
		{"width 2", func(c *Config) { c.IndexWidth = 2 }, false},
		{"width 0", func(c *Config) { c.IndexWidth = 0 }, false},
		{"json logs", func(c *Config) { c.Log.Format = "json" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, false},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, false},
		{"no input cap", func(c *Config) { c.MaxInputSize = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig empty path error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("LoadConfig(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qfund.yaml")

	content := `index_width: 8
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.IndexWidth != 8 {
		t.Errorf("IndexWidth = %d, want 8", cfg.IndexWidth)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want debug/json", cfg.Log)
	}
	// Keys absent from the file keep their defaults.
	if cfg.MaxInputSize != DefaultMaxInputSize {
		t.Errorf("MaxInputSize = %d, want default %d", cfg.MaxInputSize, DefaultMaxInputSize)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml")},
		{"unknown key", write("unknown.yaml", "index_width: 4\nhash: sha256\n")},
		{"invalid width", write("width.yaml", "index_width: 16\n")},
		{"malformed", write("bad.yaml", "log: [\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(tt.path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseEmptyDocument(t *testing.T) {
	cfg := DefaultConfig()
	if err := Parse(nil, &cfg); err != nil {
		t.Fatalf("Parse(nil) error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("Parse(nil) changed config: %+v", cfg)
	}
}
