package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DBFileName is the database file created under the tanklab directory.
const DBFileName = "tanklab.db"

// GlobalTanklabPath returns the path to the per-user .tanklab directory.
// On Unix: ~/.tanklab
// On Windows: %USERPROFILE%\.tanklab
func GlobalTanklabPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tanklab"), nil
}

// DefaultDBPath returns ~/.tanklab/tanklab.db.
func DefaultDBPath() (string, error) {
	dir, err := GlobalTanklabPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DBFileName), nil
}

// EnsureGlobalTanklabDir creates the .tanklab directory if it doesn't exist.
func EnsureGlobalTanklabDir() error {
	globalPath, err := GlobalTanklabPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(globalPath, 0755); err != nil {
		return fmt.Errorf("failed to create .tanklab directory: %w", err)
	}

	return nil
}
