// Package config loads editor configuration.
//
// Settings come from three layers, lowest precedence first: built-in
// defaults, an optional config file (config.yaml next to the state
// directory, or --config), and OFD_* environment variables. A project
// checkout can additionally pin its data layout in .ofd/project.toml,
// which wins over everything because it describes the checkout itself
// rather than user preference.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// StateDirName is the per-checkout state directory, analogous to a VCS
// dot-directory. It holds the staging database, log file, and project
// settings.
const StateDirName = ".ofd"

// Config is the resolved editor configuration.
type Config struct {
	// DataDir is the brands hierarchy of the catalog checkout.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	// StoresDir is the stores directory of the catalog checkout.
	StoresDir string `mapstructure:"stores_dir" yaml:"stores_dir"`
	// StateDir holds the staging database and logs.
	StateDir string `mapstructure:"state_dir" yaml:"state_dir"`
	// LogLevel is debug, info, warn, or error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// Port is the serve dashboard port.
	Port int `mapstructure:"port" yaml:"port"`
}

// projectFile mirrors the .ofd/project.toml layout.
type projectFile struct {
	DataDir   string `toml:"data_dir"`
	StoresDir string `toml:"stores_dir"`
}

// DBPath returns the staging database location.
func (c *Config) DBPath() string { return filepath.Join(c.StateDir, "staging.db") }

// LogPath returns the rotating log file location.
func (c *Config) LogPath() string { return filepath.Join(c.StateDir, "ofd.log") }

// FindProjectDir walks up from the working directory looking for an
// existing .ofd state directory and returns its parent, or "" if none is
// found. Mirrors how the editor is expected to run from anywhere inside a
// catalog checkout.
func FindProjectDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, StateDirName)); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load resolves the configuration. cfgFile, when non-empty, names an
// explicit config file and missing-file errors become fatal; otherwise a
// missing config file is fine.
func Load(cfgFile string) (*Config, error) {
	project := FindProjectDir()
	if project == "" {
		project = "."
	}

	v := viper.New()
	v.SetDefault("data_dir", filepath.Join(project, "data"))
	v.SetDefault("stores_dir", filepath.Join(project, "stores"))
	v.SetDefault("state_dir", filepath.Join(project, StateDirName))
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8090)

	v.SetEnvPrefix("OFD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(project, StateDirName))
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				if !os.IsNotExist(err) {
					return nil, fmt.Errorf("failed to read config: %w", err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := applyProjectFile(filepath.Join(project, StateDirName, "project.toml"), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyProjectFile overlays checkout-pinned settings from project.toml.
// A missing file is not an error.
func applyProjectFile(path string, cfg *Config) error {
	var pf projectFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if pf.DataDir != "" {
		cfg.DataDir = pf.DataDir
	}
	if pf.StoresDir != "" {
		cfg.StoresDir = pf.StoresDir
	}
	return nil
}

// WriteDefault writes a commented starter config.yaml to path, refusing to
// overwrite an existing file.
func WriteDefault(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# ofd editor configuration. Values may also be set via OFD_* env vars.\n")
	if err := os.WriteFile(path, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
