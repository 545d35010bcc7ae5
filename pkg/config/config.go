// Package config loads server configuration from YAML files and applies it to
// a service registry.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/wshost/pkg/service"
	"github.com/getmockd/wshost/pkg/websocket"
)

// Common errors for configuration loading.
var (
	// ErrFileNotFound indicates the configuration file does not exist.
	ErrFileNotFound = errors.New("configuration file not found")
	// ErrEmptyFile indicates the configuration file is empty.
	ErrEmptyFile = errors.New("configuration file is empty")
	// ErrInvalidYAML indicates a YAML syntax error.
	ErrInvalidYAML = errors.New("invalid YAML syntax")
	// ErrDuplicateService indicates two services resolve to the same path.
	ErrDuplicateService = errors.New("duplicate service path")
)

// Config is the top-level server configuration.
type Config struct {
	// Addr is the listen address (default: ":8080").
	Addr string `yaml:"addr,omitempty"`
	// LogLevel is the minimum log level: debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty"`
	// LogFormat is the log output format: text or json.
	LogFormat string `yaml:"logFormat,omitempty"`
	// KeepClean sets the registry-wide keep-clean default.
	KeepClean *bool `yaml:"keepClean,omitempty"`
	// WaitTime sets the registry-wide response wait time, as a duration
	// string such as "500ms".
	WaitTime string `yaml:"waitTime,omitempty"`
	// Services lists the endpoints to register.
	Services []ServiceConfig `yaml:"services"`
}

// ServiceConfig describes one endpoint.
type ServiceConfig struct {
	// Path is the endpoint path (e.g. "/chat").
	Path string `yaml:"path"`
	// Subprotocols lists supported subprotocols for negotiation.
	Subprotocols []string `yaml:"subprotocols,omitempty"`
	// ReadLimit is the maximum message size in bytes.
	ReadLimit int64 `yaml:"readLimit,omitempty"`
	// SweepInterval is the time between keep-clean sweeps, as a duration
	// string such as "30s".
	SweepInterval string `yaml:"sweepInterval,omitempty"`
}

// Load reads and validates a Config from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field that has a syntax: service paths, duration
// strings, and duplicate endpoints after canonicalization.
func (c *Config) Validate() error {
	if c.WaitTime != "" {
		if _, err := time.ParseDuration(c.WaitTime); err != nil {
			return fmt.Errorf("waitTime: %w", err)
		}
	}

	seen := make(map[string]bool, len(c.Services))
	for i := range c.Services {
		sc := &c.Services[i]

		canonical, err := service.ValidatePath(sc.Path)
		if err != nil {
			return fmt.Errorf("services[%d]: %w", i, err)
		}
		if seen[canonical] {
			return fmt.Errorf("%w: %s", ErrDuplicateService, canonical)
		}
		seen[canonical] = true

		if sc.SweepInterval != "" {
			if _, err := time.ParseDuration(sc.SweepInterval); err != nil {
				return fmt.Errorf("services[%d].sweepInterval: %w", i, err)
			}
		}
	}
	return nil
}

// Apply pushes the registry-wide defaults into reg and registers a WebSocket
// host for every configured service. Behaviors are bound by canonical path;
// a service with no entry in behaviors gets an echo behavior.
//
// Apply must run before the registry is started, while its configuration
// setters are still accepted.
func (c *Config) Apply(reg *service.Registry, behaviors map[string]websocket.Behavior, logger *slog.Logger) error {
	if c.KeepClean != nil {
		reg.SetKeepClean(*c.KeepClean)
	}
	if c.WaitTime != "" {
		d, err := time.ParseDuration(c.WaitTime)
		if err != nil {
			return fmt.Errorf("waitTime: %w", err)
		}
		if err := reg.SetWaitTime(d); err != nil {
			return err
		}
	}

	for i := range c.Services {
		sc := &c.Services[i]

		canonical, err := service.ValidatePath(sc.Path)
		if err != nil {
			return err
		}

		var behavior websocket.Behavior = websocket.EchoBehavior{}
		if b, ok := behaviors[canonical]; ok {
			behavior = b
		}

		hostCfg := &websocket.HostConfig{
			Subprotocols: sc.Subprotocols,
			ReadLimit:    sc.ReadLimit,
			Logger:       logger,
		}
		if sc.SweepInterval != "" {
			// Validated above.
			hostCfg.SweepInterval, _ = time.ParseDuration(sc.SweepInterval)
		}

		if _, err := reg.Register(sc.Path, websocket.Factory(behavior, hostCfg)); err != nil {
			return err
		}
	}
	return nil
}
