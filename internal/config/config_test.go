package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Web.ListenPort != DefaultListenPort {
		t.Errorf("ListenPort = %d, want %d", cfg.Web.ListenPort, DefaultListenPort)
	}
	if cfg.Store.Backend != StoreBackendMemory {
		t.Errorf("Backend = %q, want %q", cfg.Store.Backend, StoreBackendMemory)
	}
	if len(cfg.Web.CORSOrigins) != 1 || cfg.Web.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.Web.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}

	// candidates must not alias the package default
	cfg.Web.StaticCandidates[0] = "changed"
	if DefaultStaticCandidates[0] == "changed" {
		t.Fatal("default static candidates were mutated through a config")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.yaml")
	content := `web:
  listen_port: 9090
  cors_origins:
    - https://example.org
store:
  backend: sqlite-memory
metrics:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Web.ListenPort != 9090 {
		t.Errorf("ListenPort = %d, want 9090", cfg.Web.ListenPort)
	}
	if len(cfg.Web.CORSOrigins) != 1 || cfg.Web.CORSOrigins[0] != "https://example.org" {
		t.Errorf("CORSOrigins = %v", cfg.Web.CORSOrigins)
	}
	if cfg.Store.Backend != StoreBackendSQLiteMemory {
		t.Errorf("Backend = %q", cfg.Store.Backend)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled by the file")
	}
	// untouched keys keep their defaults
	if len(cfg.Web.StaticCandidates) != len(DefaultStaticCandidates) {
		t.Errorf("StaticCandidates = %v, want defaults", cfg.Web.StaticCandidates)
	}
	if cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, DefaultMetricsPath)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("web: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("expected an error for malformed yaml")
	}
}

func TestApplyEnv(t *testing.T) {
	testCases := []struct {
		env      string
		wantPort int
		wantErr  bool
	}{
		{env: "", wantPort: DefaultListenPort},
		{env: "3000", wantPort: 3000},
		{env: " 4000 ", wantPort: 4000},
		{env: "eighty", wantPort: DefaultListenPort, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run("PORT="+tc.env, func(t *testing.T) {
			t.Setenv(EnvPort, tc.env)
			cfg := NewDefaultConfig()
			err := cfg.ApplyEnv()
			if (err != nil) != tc.wantErr {
				t.Fatalf("ApplyEnv error = %v, wantErr %t", err, tc.wantErr)
			}
			if cfg.Web.ListenPort != tc.wantPort {
				t.Errorf("ListenPort = %d, want %d", cfg.Web.ListenPort, tc.wantPort)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*MainConfig)
		valid  bool
	}{
		{"defaults", func(c *MainConfig) {}, true},
		{"port zero", func(c *MainConfig) { c.Web.ListenPort = 0 }, false},
		{"port too high", func(c *MainConfig) { c.Web.ListenPort = 70000 }, false},
		{"privileged port", func(c *MainConfig) { c.Web.ListenPort = 80 }, true},
		{"ssl without files", func(c *MainConfig) { c.Web.SSL = true }, false},
		{"ssl with files", func(c *MainConfig) {
			c.Web.SSL = true
			c.Web.CertFile = "cert.pem"
			c.Web.KeyFile = "key.pem"
		}, true},
		{"ssl with autocert", func(c *MainConfig) {
			c.Web.SSL = true
			c.Web.AutoCertDomains = []string{"example.org"}
		}, true},
		{"unknown backend", func(c *MainConfig) { c.Store.Backend = "redis" }, false},
		{"sqlite backend", func(c *MainConfig) { c.Store.Backend = StoreBackendSQLiteMemory }, true},
		{"relative metrics path", func(c *MainConfig) { c.Metrics.Path = "metrics" }, false},
		{"metrics under api", func(c *MainConfig) { c.Metrics.Path = "/api/metrics" }, false},
		{"metrics disabled ignores path", func(c *MainConfig) {
			c.Metrics.Enabled = false
			c.Metrics.Path = ""
		}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
