// Package config loads the optional taskline configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// EnvConfig overrides the config file path.
const EnvConfig = "TASKLINE_CONFIG"

const defaultName = ".taskline.toml"

type Config struct {
	// File is the todo file used when --file is not given.
	File string `toml:"file"`
	// Zone is the IANA zone used when neither --zone nor the file's front
	// matter names one.
	Zone string `toml:"zone"`
	// FriendlyTimes switches pretty output to 12-hour time tokens.
	FriendlyTimes bool `toml:"friendly_times"`
}

func Default() Config {
	return Config{File: "todo.txt"}
}

// Path returns the config file location: $TASKLINE_CONFIG if set, otherwise
// ~/.taskline.toml.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return defaultName
	}
	return filepath.Join(home, defaultName)
}

// Load reads the config at path. A missing file yields defaults, never an
// error. Malformed TOML is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.File == "" {
		cfg.File = Default().File
	}
	return cfg, nil
}
