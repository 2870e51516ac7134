// Package backup exports and imports the whole lab: every user and every
// stored experiment result.
package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/tanklab/internal/models"
	"github.com/nvandessel/tanklab/internal/store"
)

// FilePrefix and FileExt name the files GenerateBackupPath creates.
const (
	FilePrefix = "tanklab-backup-"
	FileExt    = ".bak"
)

// BackupFormat is the payload of a backup file.
type BackupFormat struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Users     []models.User     `json:"users"`
	Results   []BackupResult    `json:"results"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// BackupResult is one stored result with its owner.
type BackupResult struct {
	Email  string                  `json:"email"`
	Result models.SimulationResult `json:"result"`
}

// BackupHeader is the plain-text first line of a V2 backup file.
type BackupHeader struct {
	Version     int               `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	Checksum    string            `json:"checksum"`
	UserCount   int               `json:"user_count"`
	ResultCount int               `json:"result_count"`
	Compressed  bool              `json:"compressed"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// DefaultBackupDir returns the default backup directory (~/.tanklab/backups/).
func DefaultBackupDir() (string, error) {
	dir, err := store.GlobalTanklabPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "backups"), nil
}

// GenerateBackupPath creates a timestamped backup filename in dir.
func GenerateBackupPath(dir string) string {
	ts := time.Now().Format("20060102-150405")
	return filepath.Join(dir, FilePrefix+ts+FileExt)
}

func isBackupFile(name string) bool {
	return strings.HasPrefix(name, FilePrefix) && strings.HasSuffix(name, FileExt)
}

// Collect reads every user and result from s, results in per-user
// insertion order.
func Collect(ctx context.Context, s store.ResultStore) (*BackupFormat, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	b := &BackupFormat{
		Version:   FormatV2,
		CreatedAt: time.Now().UTC(),
		Users:     users,
		Results:   make([]BackupResult, 0),
	}
	for _, u := range users {
		results, err := s.ListResults(ctx, u.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to list results for %s: %w", u.Email, err)
		}
		for _, r := range results {
			b.Results = append(b.Results, BackupResult{Email: u.Email, Result: r})
		}
	}
	return b, nil
}

// Backup writes the full contents of s to outputPath in V2 format.
func Backup(ctx context.Context, s store.ResultStore, outputPath string, metadata map[string]string) (*BackupHeader, error) {
	b, err := Collect(ctx, s)
	if err != nil {
		return nil, err
	}
	b.Metadata = metadata

	header, err := WriteV2(outputPath, b)
	if err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}
	return header, nil
}

// RestoreMode controls how restore handles existing data.
type RestoreMode string

const (
	// RestoreMerge keeps existing users and skips results already present
	// (matched by run id). This is the default.
	RestoreMerge RestoreMode = "merge"
	// RestoreReplace clears the store before restoring.
	RestoreReplace RestoreMode = "replace"
)

// ParseRestoreMode maps a flag value to a RestoreMode.
func ParseRestoreMode(s string) (RestoreMode, error) {
	switch RestoreMode(strings.ToLower(s)) {
	case "", RestoreMerge:
		return RestoreMerge, nil
	case RestoreReplace:
		return RestoreReplace, nil
	default:
		return "", fmt.Errorf("invalid restore mode %q (valid: merge, replace)", s)
	}
}

// RestoreResult contains statistics about the restore operation.
type RestoreResult struct {
	UsersRestored   int `json:"users_restored"`
	UsersSkipped    int `json:"users_skipped"`
	ResultsRestored int `json:"results_restored"`
	ResultsSkipped  int `json:"results_skipped"`
}

// Restore imports a backup file of either format into s.
func Restore(ctx context.Context, s store.ResultStore, inputPath string, mode RestoreMode) (*RestoreResult, error) {
	b, err := ReadFile(inputPath)
	if err != nil {
		return nil, err
	}
	return Apply(ctx, s, b, mode)
}

// Apply imports b into s.
func Apply(ctx context.Context, s store.ResultStore, b *BackupFormat, mode RestoreMode) (*RestoreResult, error) {
	if mode == RestoreReplace {
		r, ok := s.(store.Resetter)
		if !ok {
			return nil, fmt.Errorf("store %T cannot be cleared for replace mode", s)
		}
		if err := r.Reset(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear store: %w", err)
		}
	}

	result := &RestoreResult{}

	for _, u := range b.Users {
		if mode == RestoreMerge {
			existing, err := s.GetUser(ctx, u.Email)
			if err != nil {
				return nil, fmt.Errorf("failed to check existing user %s: %w", u.Email, err)
			}
			if existing != nil {
				result.UsersSkipped++
				continue
			}
		}
		if err := s.SaveUser(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to restore user %s: %w", u.Email, err)
		}
		result.UsersRestored++
	}

	// Run ids are unique across the whole store, so deduplicate against
	// every stored result, not just the owner's.
	var known map[string]bool
	seen := func(runID string) (bool, error) {
		if runID == "" {
			return false, nil
		}
		if known == nil {
			existing, err := s.ListAllResultsRanked(ctx)
			if err != nil {
				return false, err
			}
			known = make(map[string]bool, len(existing))
			for _, r := range existing {
				known[r.Result.RunID] = true
			}
		}
		if known[runID] {
			return true, nil
		}
		known[runID] = true
		return false, nil
	}

	for _, br := range b.Results {
		dup, err := seen(br.Result.RunID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing results: %w", err)
		}
		if dup {
			result.ResultsSkipped++
			continue
		}
		if _, err := s.SaveResult(ctx, br.Email, br.Result); err != nil {
			return nil, fmt.Errorf("failed to restore result %s for %s: %w", br.Result.RunID, br.Email, err)
		}
		result.ResultsRestored++
	}

	return result, nil
}

// Info returns the header of a backup without reading its payload for V2
// files; V1 files are decoded to count their contents.
func Info(path string) (*BackupHeader, error) {
	version, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if version == FormatV2 {
		return ReadV2Header(path)
	}

	b, err := readV1(path)
	if err != nil {
		return nil, err
	}
	return &BackupHeader{
		Version:     FormatV1,
		CreatedAt:   b.CreatedAt,
		UserCount:   len(b.Users),
		ResultCount: len(b.Results),
		Metadata:    b.Metadata,
	}, nil
}
