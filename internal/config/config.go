// Package config provides YAML-based server configuration loading for
// the duel server: listen addresses, storage backend, transport
// keep-alive timeouts, and the admin console, with an embedded default
// and search-path fallback.
package config

import (
	"fmt"
	"time"
)

// ServerConfig is the top-level server configuration document.
type ServerConfig struct {
	Listen    ListenConfig    `yaml:"listen"`
	Transport TransportConfig `yaml:"transport"`
	Storage   StorageConfig   `yaml:"storage"`
	Admin     AdminConfig     `yaml:"admin"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ListenConfig controls the public WebSocket endpoint.
type ListenConfig struct {
	Address string `yaml:"address"`
}

// TransportConfig controls per-connection keep-alive and the
// dispatcher's periodic sweep cadence.
type TransportConfig struct {
	WriteWait       Duration `yaml:"write_wait"`
	PongWait        Duration `yaml:"pong_wait"`
	TickInterval    Duration `yaml:"tick_interval"`
	SessionGCWindow Duration `yaml:"session_gc_window"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver     string `yaml:"driver"` // "sqlite" or "memory"
	SQLitePath string `yaml:"sqlite_path"`
}

// AdminConfig controls the read-only operator SSH console.
type AdminConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Address     string   `yaml:"address"`
	HostKeyPath string   `yaml:"host_key_path"`
	IdleTimeout Duration `yaml:"idle_timeout"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Duration wraps time.Duration so it can be written as "10s"/"5m" in
// YAML instead of a raw nanosecond integer.
type Duration time.Duration

// UnmarshalYAML parses a duration string (e.g. "30s") into d.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Get returns d as a time.Duration.
func (d Duration) Get() time.Duration { return time.Duration(d) }
