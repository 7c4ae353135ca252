// Package config provides configuration management for go-portfolio.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"
)

var AppVersion = "1.0.0" // overwritten at build time

const (
	AppTitle = "Portfolio API"

	// Environment variable selecting the listen port
	EnvPort = "PORT"

	DefaultListenPort = 8080

	// Store backends
	StoreBackendMemory       = "memory"
	StoreBackendSQLiteMemory = "sqlite-memory"

	DefaultMetricsPath = "/metrics"
)

// DefaultStaticCandidates are checked in order, relative to the executable's
// directory first and the working directory second.
var DefaultStaticCandidates = []string{"../static", "static", "frontend/build"}

// MainConfig holds the complete configuration for go-portfolio
type MainConfig struct {
	// Mutex for thread-safe access
	mux sync.Mutex `json:"-" yaml:"-"`

	// Web interface settings
	Web *WebConfig `json:"web" yaml:"web"`

	// Item store settings
	Store StoreConfig `json:"store" yaml:"store"`

	// Prometheus exposition
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	AppVersion string `json:"app_version" yaml:"-"` // Application version, set at build time
}

// WebConfig holds web interface configuration
type WebConfig struct {
	ListenPort       int      `json:"listen_port" yaml:"listen_port"`
	SSL              bool     `json:"ssl" yaml:"ssl"`
	CertFile         string   `json:"cert_file,omitempty" yaml:"cert_file"`
	KeyFile          string   `json:"key_file,omitempty" yaml:"key_file"`
	AutoCertDomains  []string `json:"autocert_domains,omitempty" yaml:"autocert_domains"`
	AutoCertEmail    string   `json:"autocert_email,omitempty" yaml:"autocert_email"`
	AutoCertCacheDir string   `json:"autocert_cache_dir,omitempty" yaml:"autocert_cache_dir"`
	StaticCandidates []string `json:"static_candidates" yaml:"static_candidates"`
	CORSOrigins      []string `json:"cors_origins" yaml:"cors_origins"` // "*" reflects every origin. Not for production.
	TrustedProxies   []string `json:"trusted_proxies" yaml:"trusted_proxies"`
	Debug            bool     `json:"debug" yaml:"debug"` // gin debug mode and verbose resolver logging
}

// StoreConfig selects the item store backend
type StoreConfig struct {
	Backend string `json:"backend" yaml:"backend"`
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *MainConfig {
	maincfg := &MainConfig{
		AppVersion: AppVersion,
		Web: &WebConfig{
			ListenPort:       DefaultListenPort,
			SSL:              false,
			AutoCertCacheDir: "certs",
			StaticCandidates: append([]string(nil), DefaultStaticCandidates...),
			CORSOrigins:      []string{"*"},
			TrustedProxies:   []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		},
		Store: StoreConfig{
			Backend: StoreBackendMemory,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
	return maincfg
}

// LoadConfigFile reads a YAML file on top of the defaults.
// Keys missing from the file keep their default values.
func LoadConfigFile(path string) (*MainConfig, error) {
	cfg := NewDefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if cfg.Web == nil {
		cfg.Web = NewDefaultConfig().Web
	}
	log.Printf("[CONFIG]: Loaded configuration from %s", path)
	return cfg, nil
}

// ApplyEnv overrides the listen port from $PORT.
func (c *MainConfig) ApplyEnv() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	portEnv := strings.TrimSpace(os.Getenv(EnvPort))
	if portEnv == "" {
		return nil
	}
	p, err := strconv.Atoi(portEnv)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", EnvPort, portEnv, err)
	}
	c.Web.ListenPort = p
	log.Printf("[CONFIG]: Port overridden by environment variable: %d", p)
	return nil
}

// Validate checks the values that would otherwise fail late at startup.
func (c *MainConfig) Validate() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.Web == nil {
		return errors.New("missing web configuration")
	}
	if c.Web.ListenPort < 1 || c.Web.ListenPort > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", c.Web.ListenPort)
	}
	if c.Web.SSL && len(c.Web.AutoCertDomains) == 0 && (c.Web.CertFile == "" || c.Web.KeyFile == "") {
		return errors.New("SSL enabled but cert_file or key_file not specified in config")
	}
	switch c.Store.Backend {
	case StoreBackendMemory, StoreBackendSQLiteMemory:
	default:
		return fmt.Errorf("unknown store backend %q (want %s or %s)", c.Store.Backend, StoreBackendMemory, StoreBackendSQLiteMemory)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/': %q", c.Metrics.Path)
	}
	if c.Metrics.Enabled && (c.Metrics.Path == "/" || c.Metrics.Path == "/api" || strings.HasPrefix(c.Metrics.Path, "/api/")) {
		return fmt.Errorf("metrics path %q collides with application routes", c.Metrics.Path)
	}
	return nil
}
