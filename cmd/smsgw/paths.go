package main

import (
	"fmt"
	"os"
	"path/filepath"

	"smsgw/pkg/protocol"
)

// Paths holds all resolved gateway state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	GwHome     string // ~/.smsgw or SMSGW_HOME
	ConfigPath string // config.toml or SMSGW_CONFIG_PATH
	SocketPath string // gateway.sock or SMSGW_SOCKET_PATH
	DBPath     string // gateway.db or SMSGW_DB_PATH
	LogPath    string // activity.log or SMSGW_LOG_PATH
}

// ResolvePaths returns all gateway paths, respecting env var overrides.
// Environment variables:
//   - SMSGW_HOME: base directory for all gateway state (default: ~/.smsgw)
//   - SMSGW_CONFIG_PATH: TOML config file (default: $SMSGW_HOME/config.toml)
//   - SMSGW_SOCKET_PATH: pool UDS socket (default: $SMSGW_HOME/gateway.sock)
//   - SMSGW_DB_PATH: state database (default: $SMSGW_HOME/gateway.db)
//   - SMSGW_LOG_PATH: activity log (default: $SMSGW_HOME/activity.log)
func ResolvePaths() (*Paths, error) {
	home, err := resolveGwHome()
	if err != nil {
		return nil, err
	}

	return &Paths{
		GwHome:     home,
		ConfigPath: resolvePathWithEnv("SMSGW_CONFIG_PATH", home, "config.toml"),
		SocketPath: resolvePathWithEnv("SMSGW_SOCKET_PATH", home, protocol.SocketName),
		DBPath:     resolvePathWithEnv("SMSGW_DB_PATH", home, protocol.StateDBName),
		LogPath:    resolvePathWithEnv("SMSGW_LOG_PATH", home, protocol.ActivityLogName),
	}, nil
}

func resolveGwHome() (string, error) {
	if v := os.Getenv("SMSGW_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, protocol.GwDir), nil
}

func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
