package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/tanklab/internal/backup"
	"github.com/nvandessel/tanklab/internal/pathutil"
)

// handleBackup implements the tank_backup tool.
func (s *Server) handleBackup(ctx context.Context, req *sdk.CallToolRequest, args BackupInput) (_ *sdk.CallToolResult, _ BackupOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("tank_backup", start, retErr, map[string]any{"output_path": args.OutputPath})
	}()

	if err := s.limiters.Check("tank_backup"); err != nil {
		return nil, BackupOutput{}, err
	}

	outputPath := args.OutputPath
	if outputPath == "" {
		outputPath = backup.GenerateBackupPath(s.backupDir)
	} else if err := pathutil.ValidatePath(outputPath, pathutil.AllowedDirs(s.backupDir)); err != nil {
		return nil, BackupOutput{}, fmt.Errorf("backup path rejected: %w", err)
	}

	header, err := backup.Backup(ctx, s.store, outputPath, map[string]string{"source": "mcp"})
	if err != nil {
		return nil, BackupOutput{}, fmt.Errorf("backup failed: %w", err)
	}

	if _, err := backup.ApplyRetention(filepath.Dir(outputPath), s.retention); err != nil {
		s.logger.Warn("failed to apply retention", "error", err)
	}

	var sizeBytes int64
	if info, err := os.Stat(outputPath); err == nil {
		sizeBytes = info.Size()
	}

	return nil, BackupOutput{
		Path:        outputPath,
		UserCount:   header.UserCount,
		ResultCount: header.ResultCount,
		Version:     header.Version,
		SizeBytes:   sizeBytes,
		Message: fmt.Sprintf("Backup created: %d users, %d results in %s",
			header.UserCount, header.ResultCount, filepath.Base(outputPath)),
	}, nil
}

// handleRestore implements the tank_restore tool.
func (s *Server) handleRestore(ctx context.Context, req *sdk.CallToolRequest, args RestoreInput) (_ *sdk.CallToolResult, _ RestoreOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("tank_restore", start, retErr, map[string]any{
			"input_path": args.InputPath, "mode": args.Mode,
		})
	}()

	if err := s.limiters.Check("tank_restore"); err != nil {
		return nil, RestoreOutput{}, err
	}

	mode, err := backup.ParseRestoreMode(args.Mode)
	if err != nil {
		return nil, RestoreOutput{}, err
	}
	if err := pathutil.ValidatePath(args.InputPath, pathutil.AllowedDirs(s.backupDir)); err != nil {
		return nil, RestoreOutput{}, fmt.Errorf("restore path rejected: %w", err)
	}

	result, err := backup.Restore(ctx, s.store, args.InputPath, mode)
	if err != nil {
		return nil, RestoreOutput{}, fmt.Errorf("restore failed: %w", err)
	}

	return nil, RestoreOutput{
		UsersRestored:   result.UsersRestored,
		UsersSkipped:    result.UsersSkipped,
		ResultsRestored: result.ResultsRestored,
		ResultsSkipped:  result.ResultsSkipped,
		Message: fmt.Sprintf("Restored %d users and %d results (%s mode)",
			result.UsersRestored, result.ResultsRestored, mode),
	}, nil
}
