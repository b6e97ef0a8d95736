package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/netgate/pkg/permission"
	"github.com/go-drift/netgate/pkg/probe"
	"github.com/go-drift/netgate/pkg/watch"
)

// Config represents the optional netgate.yaml configuration.
type Config struct {
	Host  HostConfig  `yaml:"host"`
	Watch WatchConfig `yaml:"watch"`
	Probe ProbeConfig `yaml:"probe"`
}

// HostConfig locates the shell's bridge endpoint.
type HostConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
}

// WatchConfig contains watcher settings.
type WatchConfig struct {
	Permission string `yaml:"permission,omitempty"`
	IntervalMs int    `yaml:"interval_ms,omitempty"`
	WarmupMs   int    `yaml:"warmup_ms,omitempty"`
}

// ProbeConfig contains prompt-trigger settings.
type ProbeConfig struct {
	URL string `yaml:"url,omitempty"`
}

// Resolved contains resolved configuration values with defaults applied.
type Resolved struct {
	Endpoint   string
	Permission string
	Interval   time.Duration
	WarmUp     time.Duration
	ProbeURL   string
}

// DefaultEndpoint is the shell bridge endpoint used when none is configured.
const DefaultEndpoint = "ws://127.0.0.1:9522/bridge"

// LoadOptional reads netgate.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, "netgate.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read netgate.yaml: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse netgate.yaml: %w", err)
	}

	return &cfg, nil
}

// Resolve loads netgate.yaml (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	return resolve(cfg)
}

func resolve(cfg *Config) (*Resolved, error) {
	endpoint := strings.TrimSpace(cfg.Host.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(cfg.Watch.Permission)
	if name == "" {
		name = permission.LocalNetwork
	}

	interval := watch.DefaultInterval
	if cfg.Watch.IntervalMs != 0 {
		if cfg.Watch.IntervalMs < 0 {
			return nil, fmt.Errorf("watch.interval_ms must be positive (got %d)", cfg.Watch.IntervalMs)
		}
		interval = time.Duration(cfg.Watch.IntervalMs) * time.Millisecond
	}

	var warmUp time.Duration
	if cfg.Watch.WarmupMs != 0 {
		if cfg.Watch.WarmupMs < 0 {
			return nil, fmt.Errorf("watch.warmup_ms must not be negative (got %d)", cfg.Watch.WarmupMs)
		}
		warmUp = time.Duration(cfg.Watch.WarmupMs) * time.Millisecond
	}

	probeURL := strings.TrimSpace(cfg.Probe.URL)
	if probeURL == "" {
		probeURL = probe.DefaultEndpoint
	}

	return &Resolved{
		Endpoint:   endpoint,
		Permission: name,
		Interval:   interval,
		WarmUp:     warmUp,
		ProbeURL:   probeURL,
	}, nil
}

func validateEndpoint(endpoint string) error {
	if !strings.HasPrefix(endpoint, "ws://") && !strings.HasPrefix(endpoint, "wss://") {
		return fmt.Errorf("host.endpoint must be a ws:// or wss:// URL (got %q)", endpoint)
	}
	return nil
}
