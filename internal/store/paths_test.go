package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGlobalTanklabPath(t *testing.T) {
	got, err := GlobalTanklabPath()
	if err != nil {
		t.Fatalf("GlobalTanklabPath() error = %v", err)
	}
	if !strings.HasSuffix(got, ".tanklab") {
		t.Errorf("GlobalTanklabPath() = %v, should end with .tanklab", got)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("GlobalTanklabPath() = %v, should be absolute path", got)
	}
	homeDir, _ := os.UserHomeDir()
	if !strings.HasPrefix(got, homeDir) {
		t.Errorf("GlobalTanklabPath() = %v, should start with home directory %v", got, homeDir)
	}
}

func TestDefaultDBPath(t *testing.T) {
	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath() error = %v", err)
	}
	if filepath.Base(got) != DBFileName {
		t.Errorf("DefaultDBPath() = %v, want base %s", got, DBFileName)
	}
	if filepath.Base(filepath.Dir(got)) != ".tanklab" {
		t.Errorf("DefaultDBPath() = %v, want parent .tanklab", got)
	}
}

func TestEnsureGlobalTanklabDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	if err := EnsureGlobalTanklabDir(); err != nil {
		t.Fatalf("EnsureGlobalTanklabDir() error = %v", err)
	}
	// Second call must be a no-op.
	if err := EnsureGlobalTanklabDir(); err != nil {
		t.Fatalf("EnsureGlobalTanklabDir() second call error = %v", err)
	}

	info, err := os.Stat(filepath.Join(home, ".tanklab"))
	if err != nil {
		t.Fatalf("stat .tanklab: %v", err)
	}
	if !info.IsDir() {
		t.Error(".tanklab is not a directory")
	}
}
