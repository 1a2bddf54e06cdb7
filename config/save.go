package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveConfig writes single keys to the global or local config file.
type SaveConfig struct {
	GlobalConfigDir  string
	GlobalConfigFile string
	LocalConfigName  string

	// ValidKeys restricts writable keys. Nil allows all.
	ValidKeys []string
}

// DefaultSave returns the writer matching Default.
func DefaultSave() SaveConfig {
	return SaveConfig{
		GlobalConfigDir: "agdt",
		LocalConfigName: ".agdt.yaml",
		ValidKeys:       Keys(),
	}
}

func (c SaveConfig) globalPath() (string, error) {
	if c.GlobalConfigDir == "" {
		return "", fmt.Errorf("global config directory not configured")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	file := c.GlobalConfigFile
	if file == "" {
		file = "config.yaml"
	}
	return filepath.Join(home, ".config", c.GlobalConfigDir, file), nil
}

func (c SaveConfig) checkKey(key string) error {
	if len(c.ValidKeys) > 0 && !slices.Contains(c.ValidKeys, key) {
		return fmt.Errorf("unknown config key: %s\n\nValid keys: %s", key, strings.Join(c.ValidKeys, ", "))
	}
	return nil
}

// SaveGlobal sets key in ~/.config/<dir>/config.yaml. The file is private
// because it may hold tokens.
func (c SaveConfig) SaveGlobal(key, value string) error {
	if err := c.checkKey(key); err != nil {
		return err
	}
	path, err := c.globalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return updateFile(path, 0o600, func(m map[string]any) { m[key] = parseValue(value) })
}

// SaveLocal sets key in the local file under gitRoot.
func (c SaveConfig) SaveLocal(gitRoot, key, value string) error {
	if gitRoot == "" {
		return fmt.Errorf("git root not found")
	}
	if c.LocalConfigName == "" {
		return fmt.Errorf("local config name not configured")
	}
	if err := c.checkKey(key); err != nil {
		return err
	}
	if IsSecret(key) {
		return fmt.Errorf("%s is a secret and may only be set globally", key)
	}

	path := filepath.Join(gitRoot, c.LocalConfigName)
	// Shared with the repository, so readable.
	return updateFile(path, 0o644, func(m map[string]any) { m[key] = parseValue(value) })
}

// DeleteGlobalKey removes key from the global file. A missing file is not
// an error.
func (c SaveConfig) DeleteGlobalKey(key string) error {
	path, err := c.globalPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return updateFile(path, 0o600, func(m map[string]any) { delete(m, key) })
}

func updateFile(path string, perm os.FileMode, fn func(map[string]any)) error {
	existing := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if existing == nil {
			existing = make(map[string]any)
		}
	}

	fn(existing)

	data, err := yaml.Marshal(existing)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

// parseValue stores booleans as YAML booleans.
func parseValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
