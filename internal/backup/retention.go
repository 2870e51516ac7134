package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// BackupInfo describes one backup file on disk.
type BackupInfo struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
}

// RetentionPolicy picks the backups to keep from a newest-first list.
type RetentionPolicy interface {
	Keep(backups []BackupInfo) []BackupInfo
}

// KeepLast keeps the N most recent backups.
type KeepLast int

func (n KeepLast) Keep(backups []BackupInfo) []BackupInfo {
	if int(n) < 0 || len(backups) <= int(n) {
		return backups
	}
	return backups[:n]
}

// KeepNewerThan keeps backups created within the duration.
type KeepNewerThan time.Duration

func (d KeepNewerThan) Keep(backups []BackupInfo) []BackupInfo {
	cutoff := time.Now().Add(-time.Duration(d))
	var keep []BackupInfo
	for _, b := range backups {
		if b.CreatedAt.After(cutoff) {
			keep = append(keep, b)
		}
	}
	return keep
}

// AnyOf keeps a backup when any of its policies keeps it.
type AnyOf []RetentionPolicy

func (p AnyOf) Keep(backups []BackupInfo) []BackupInfo {
	kept := make(map[string]bool)
	for _, policy := range p {
		for _, b := range policy.Keep(backups) {
			kept[b.Path] = true
		}
	}

	var keep []BackupInfo
	for _, b := range backups {
		if kept[b.Path] {
			keep = append(keep, b)
		}
	}
	return keep
}

// ListBackups returns the tanklab-backup-* files in dir, newest first.
// A missing directory yields an empty list.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, e := range entries {
		if e.IsDir() || !isBackupFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		bi := BackupInfo{
			Path:      filepath.Join(dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		}
		if v, err := DetectFormat(bi.Path); err == nil {
			bi.Version = v
		}
		backups = append(backups, bi)
	}

	// The timestamp is embedded in the name, so name order is age order.
	slices.SortFunc(backups, func(a, b BackupInfo) int {
		return strings.Compare(filepath.Base(b.Path), filepath.Base(a.Path))
	})
	return backups, nil
}

// ApplyRetention removes the backups in dir that policy does not keep and
// returns their paths.
func ApplyRetention(dir string, policy RetentionPolicy) ([]string, error) {
	backups, err := ListBackups(dir)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool)
	for _, b := range policy.Keep(backups) {
		keep[b.Path] = true
	}

	var deleted []string
	for _, b := range backups {
		if keep[b.Path] {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(b.Path), err)
		}
		deleted = append(deleted, b.Path)
	}
	return deleted, nil
}

// ParseDuration accepts Go durations ("720h") plus day and week counts
// ("30d", "2w").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	unit := map[byte]time.Duration{'d': 24 * time.Hour, 'w': 7 * 24 * time.Hour}[s[len(s)-1]]
	if unit == 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	return time.Duration(n) * unit, nil
}
