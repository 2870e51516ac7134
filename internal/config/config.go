// Package config provides unified configuration loading for tanklab.
// It supports loading from YAML files, a .env file and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TanklabConfig contains all tanklab configuration settings.
type TanklabConfig struct {
	// Store selects and locates the persistence backend.
	Store StoreConfig `json:"store" yaml:"store"`

	// Simulation contains the model constants and noise settings.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Logging contains settings for operational logging and the run journal.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Backup contains backup location and retention settings.
	Backup BackupConfig `json:"backup" yaml:"backup"`
}

// StoreConfig configures where results are kept.
type StoreConfig struct {
	// Backend is "sqlite" (default) or "memory".
	Backend string `json:"backend" yaml:"backend"`

	// Path is the SQLite database file. Empty means ~/.tanklab/tanklab.db.
	Path string `json:"path" yaml:"path"`
}

// SimulationConfig configures the experiment engine.
type SimulationConfig struct {
	// NoiseLevel is the plant noise std as a fraction of tank height. 0 disables noise.
	NoiseLevel float64 `json:"noise_level" yaml:"noise_level"`

	// Seed makes runs reproducible. 0 seeds from the clock.
	Seed int64 `json:"seed" yaml:"seed"`

	IdealTau       float64 `json:"ideal_tau" yaml:"ideal_tau"`
	PlantTau       float64 `json:"plant_tau" yaml:"plant_tau"`
	PlantGainRatio float64 `json:"plant_gain_ratio" yaml:"plant_gain_ratio"`

	// StrictBounds rejects parameters outside the dashboard's slider ranges.
	StrictBounds bool `json:"strict_bounds" yaml:"strict_bounds"`
}

// LoggingConfig configures tanklab's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the run journal at ~/.tanklab/runs.jsonl.
	Level string `json:"level" yaml:"level"`
}

// BackupConfig configures `tanklab backup`.
type BackupConfig struct {
	// Dir holds generated backups. Empty means ~/.tanklab/backups.
	Dir string `json:"dir" yaml:"dir"`

	Retention RetentionConfig `json:"retention" yaml:"retention"`
}

// RetentionConfig bounds how many backups are kept. A backup survives if
// either rule keeps it.
type RetentionConfig struct {
	MaxCount int    `json:"max_count" yaml:"max_count"`
	MaxAge   string `json:"max_age" yaml:"max_age"` // e.g. "30d", "2w", "720h"
}

// Default returns a TanklabConfig with sensible defaults.
func Default() *TanklabConfig {
	return &TanklabConfig{
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    "",
		},
		Simulation: SimulationConfig{
			NoiseLevel:     0.05,
			Seed:           0,
			IdealTau:       30.0,
			PlantTau:       35.0,
			PlantGainRatio: 0.95,
			StrictBounds:   true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Backup: BackupConfig{
			Retention: RetentionConfig{MaxCount: 10},
		},
	}
}

// DefaultPath returns ~/.tanklab/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tanklab", "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ./.env -> ~/.tanklab/config.yaml -> environment variables
func Load() (*TanklabConfig, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFrom is Load with an explicit config file in place of
// ~/.tanklab/config.yaml. An empty path behaves like Load.
func LoadFrom(path string) (*TanklabConfig, error) {
	if path == "" {
		return Load()
	}
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadDotEnv loads variables from path into the process environment if the
// file exists. Variables already set are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*TanklabConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.Path = expandEnvVars(config.Store.Path)
	config.Backup.Dir = expandEnvVars(config.Backup.Dir)

	return config, nil
}

// SaveToFile writes the configuration as YAML with 0600 permissions,
// creating the parent directory if needed.
func (c *TanklabConfig) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid. The store backend name is
// normalized to lower case first, matching store.Open.
func (c *TanklabConfig) Validate() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	validBackends := map[string]bool{"": true, "sqlite": true, "memory": true}
	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("invalid store backend: %s (valid: sqlite, memory)", c.Store.Backend)
	}

	if c.Simulation.NoiseLevel < 0 || c.Simulation.NoiseLevel > 1 {
		return fmt.Errorf("noise_level must be between 0 and 1, got %f", c.Simulation.NoiseLevel)
	}

	if c.Simulation.IdealTau < 0 || c.Simulation.PlantTau < 0 {
		return fmt.Errorf("time constants must be non-negative, got ideal=%f plant=%f",
			c.Simulation.IdealTau, c.Simulation.PlantTau)
	}

	if c.Simulation.PlantGainRatio < 0 {
		return fmt.Errorf("plant_gain_ratio must be non-negative, got %f", c.Simulation.PlantGainRatio)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	if c.Backup.Retention.MaxCount < 0 {
		return fmt.Errorf("backup.retention.max_count must be non-negative, got %d", c.Backup.Retention.MaxCount)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *TanklabConfig) {
	if v := os.Getenv("TANKLAB_STORE_BACKEND"); v != "" {
		config.Store.Backend = v
	}

	if v := os.Getenv("TANKLAB_DB_PATH"); v != "" {
		config.Store.Path = v
	}

	if v := os.Getenv("TANKLAB_NOISE_LEVEL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Simulation.NoiseLevel = f
		}
	}

	if v := os.Getenv("TANKLAB_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}

	if v := os.Getenv("TANKLAB_STRICT_BOUNDS"); v != "" {
		config.Simulation.StrictBounds = v == "true" || v == "1"
	}

	if v := os.Getenv("TANKLAB_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("TANKLAB_BACKUP_DIR"); v != "" {
		config.Backup.Dir = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
