package services

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/ailabteam/go-qadr/protocol"
)

// FileConfig is the on-disk TOML configuration.
//
//	[protocol]
//	participants = 10
//	slot_ratio = 2.0
//
//	runs = 20
//
//	[postgres]
//	host = "localhost"
//	port = 5432
//	...
type FileConfig struct {
	Protocol protocol.Config `toml:"protocol"`

	// Runs is the repetition count for bench experiments.
	Runs int `toml:"runs"`

	// Postgres enables the PostgreSQL run store when present.
	Postgres *PostgresConfig `toml:"postgres"`
}

// LoadConfig reads and validates a TOML configuration file. Unset protocol
// fields fall back to their defaults.
func LoadConfig(path string) (*FileConfig, error) {
	cfg := &FileConfig{
		Protocol: protocol.DefaultConfig(),
		Runs:     1,
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg.Protocol.Normalize()
	if err := cfg.Protocol.Validate(); err != nil {
		return nil, err
	}
	if cfg.Runs < 1 {
		return nil, fmt.Errorf("%w: runs must be at least 1, got %d", protocol.ErrInvalidConfig, cfg.Runs)
	}
	return cfg, nil
}
