package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the gateway's TOML configuration file.
type Config struct {
	// Listen is the HTTP admin bind address.
	Listen string `toml:"listen"`

	// Operators is the path to the YAML operator prefix table. Empty
	// disables operator-aware routing.
	Operators string `toml:"operators"`

	// HeartbeatTimeout closes pool connections silent for this long.
	// Zero disables the monitor.
	HeartbeatTimeout time.Duration `toml:"heartbeat_timeout"`
}

func defaultConfig() Config {
	return Config{
		Listen:           "127.0.0.1:8080",
		HeartbeatTimeout: 90 * time.Second,
	}
}

// LoadConfig reads the TOML config at path. A missing file yields defaults;
// set fields override them.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
