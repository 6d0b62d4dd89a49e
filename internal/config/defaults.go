package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/server.yaml
var defaultServerYAML []byte

// DefaultServerConfig returns the hardcoded fallback used if the
// embedded YAML itself somehow fails to parse.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Listen: ListenConfig{Address: ":8080"},
		Transport: TransportConfig{
			WriteWait:       Duration(10 * time.Second),
			PongWait:        Duration(60 * time.Second),
			TickInterval:    Duration(500 * time.Millisecond),
			SessionGCWindow: Duration(10 * time.Minute),
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "~/.pdserver/duel.db",
		},
		Admin: AdminConfig{
			Enabled:     true,
			Address:     ":2222",
			HostKeyPath: "",
			IdleTimeout: Duration(30 * time.Minute),
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
