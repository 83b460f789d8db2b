package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	rootDir    = "enginectl"
	configName = "enginectl.yaml"
	dirPerm    = 0o700
)

// Dir returns the per-user enginectl directory under the OS config dir.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve user config dir: %w", err)
	}
	return filepath.Join(base, rootDir), nil
}

func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("unable to create enginectl dir: %w", err)
	}
	return dir, nil
}

// DefaultConfigPath is the config file used when none is given. Without a
// user config dir it falls back to the working directory.
func DefaultConfigPath() string {
	dir, err := Dir()
	if err != nil {
		return configName
	}
	return filepath.Join(dir, configName)
}
