package main

import (
	"path/filepath"
	"testing"
)

func TestResolvePathsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SMSGW_HOME", home)

	paths, err := ResolvePaths()
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}

	if paths.GwHome != home {
		t.Errorf("GwHome = %s, want %s", paths.GwHome, home)
	}
	if paths.DBPath != filepath.Join(home, "gateway.db") {
		t.Errorf("DBPath = %s", paths.DBPath)
	}
	if paths.SocketPath != filepath.Join(home, "gateway.sock") {
		t.Errorf("SocketPath = %s", paths.SocketPath)
	}
	if paths.LogPath != filepath.Join(home, "activity.log") {
		t.Errorf("LogPath = %s", paths.LogPath)
	}
	if paths.ConfigPath != filepath.Join(home, "config.toml") {
		t.Errorf("ConfigPath = %s", paths.ConfigPath)
	}
}

func TestResolvePathsEnvOverrides(t *testing.T) {
	t.Setenv("SMSGW_HOME", t.TempDir())
	t.Setenv("SMSGW_DB_PATH", "/custom/gateway.db")
	t.Setenv("SMSGW_SOCKET_PATH", "/custom/gateway.sock")

	paths, err := ResolvePaths()
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}

	if paths.DBPath != "/custom/gateway.db" {
		t.Errorf("DBPath = %s, want override", paths.DBPath)
	}
	if paths.SocketPath != "/custom/gateway.sock" {
		t.Errorf("SocketPath = %s, want override", paths.SocketPath)
	}
}
