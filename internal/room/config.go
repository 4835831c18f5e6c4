package room

import "github.com/hashicorp/hcl/v2/hclsimple"

// ServerConfig is the room server's static configuration file (HCL),
// modeled on the teacher's own ServerConfig/LoadServerConfig shape: a flat
// struct with hcl tags, decoded in one call, backfilled with defaults for
// anything left zero.
type ServerConfig struct {
	ListenAddr         string `hcl:"listen_addr,optional"`
	PaletteFile        string `hcl:"palette_file,optional"`
	LogLevel           string `hcl:"log_level,optional"`
	SnapshotIntervalMs int    `hcl:"snapshot_interval_ms,optional"`
}

// DefaultServerConfig returns the zero-config defaults the room runs with
// when no config file is given.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:         ":8080",
		LogLevel:           "info",
		SnapshotIntervalMs: snapshotIntervalMs,
	}
}

// LoadServerConfig decodes an HCL config file and backfills any
// unspecified field with DefaultServerConfig's value.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := ServerConfig{}
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return ServerConfig{}, err
	}
	def := DefaultServerConfig()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.SnapshotIntervalMs == 0 {
		cfg.SnapshotIntervalMs = def.SnapshotIntervalMs
	}
	return cfg, nil
}
