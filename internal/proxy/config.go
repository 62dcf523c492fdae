package proxy

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes server wiring and runtime behaviour.
type Config struct {
	Listen         string
	IndexHTML      string
	UserAgent      string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	InsecureTLS    bool
	SitesDir       string
	Logger         *log.Logger
}

const (
	defaultListen         = ":8080"
	defaultConnectTimeout = 10 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 32 << 20
)

// DefaultConfig populates configuration from environment variables.
func DefaultConfig() Config {
	cfg := Config{
		Listen:         defaultListen,
		IndexHTML:      defaultIndexHTML,
		ConnectTimeout: defaultConnectTimeout,
		RequestTimeout: defaultRequestTimeout,
		MaxBodyBytes:   defaultMaxBodyBytes,
		Logger:         log.Default(),
	}
	if v := strings.TrimSpace(os.Getenv("WEBMIRROR_LISTEN")); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("WEBMIRROR_USER_AGENT")); v != "" {
		cfg.UserAgent = v
	}
	if v := strings.TrimSpace(os.Getenv("WEBMIRROR_CONNECT_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ConnectTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("WEBMIRROR_REQUEST_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RequestTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("WEBMIRROR_MAX_BODY_BYTES")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		}
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("WEBMIRROR_INSECURE_TLS"))) {
	case "1", "true", "yes", "on":
		cfg.InsecureTLS = true
	}
	cfg.SitesDir = strings.TrimSpace(os.Getenv("WEBMIRROR_SITES_DIR"))
	return cfg
}

// fileConfig is the YAML shape of a config file. Durations are written as Go
// duration strings ("10s", "1m30s").
type fileConfig struct {
	Listen         string `yaml:"listen"`
	UserAgent      string `yaml:"user_agent"`
	ConnectTimeout string `yaml:"connect_timeout"`
	RequestTimeout string `yaml:"request_timeout"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes"`
	InsecureTLS    *bool  `yaml:"insecure_tls"`
	SitesDir       string `yaml:"sites_dir"`
}

// LoadConfig overlays a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if fc.Listen != "" {
		cfg.Listen = fc.Listen
	}
	if fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}
	if fc.ConnectTimeout != "" {
		d, err := time.ParseDuration(fc.ConnectTimeout)
		if err != nil {
			return cfg, fmt.Errorf("connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}
	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return cfg, fmt.Errorf("request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if fc.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = fc.MaxBodyBytes
	}
	if fc.InsecureTLS != nil {
		cfg.InsecureTLS = *fc.InsecureTLS
	}
	if fc.SitesDir != "" {
		cfg.SitesDir = fc.SitesDir
	}
	return cfg, nil
}
