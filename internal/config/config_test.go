package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.Port != 8090 {
		t.Errorf("port = %d", cfg.Port)
	}
	if filepath.Base(cfg.StateDir) != StateDirName {
		t.Errorf("state dir = %q", cfg.StateDir)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	stateDir := filepath.Join(dir, StateDirName)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "log_level: debug\nport: 9000\n"
	if err := os.WriteFile(filepath.Join(stateDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("explicit missing config file must fail")
	}
}

func TestProjectFileOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	stateDir := filepath.Join(dir, StateDirName)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatal(err)
	}
	toml := "data_dir = \"/srv/catalog/data\"\n"
	if err := os.WriteFile(filepath.Join(stateDir, "project.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != "/srv/catalog/data" {
		t.Errorf("data dir = %q, want the project.toml value", cfg.DataDir)
	}
}

func TestFindProjectDirWalksUp(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, StateDirName), 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "data", "Acme")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	got := FindProjectDir()
	// Resolve symlinks before comparing; temp dirs may be behind them.
	wantResolved, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != wantResolved {
		t.Errorf("FindProjectDir = %q, want %q", got, root)
	}
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{LogLevel: "info", Port: 8090}

	if err := WriteDefault(path, cfg); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefault(path, cfg); err == nil {
		t.Error("second write must refuse to overwrite")
	}
}
