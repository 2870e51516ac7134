package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/tanklab/internal/backup"
	"github.com/nvandessel/tanklab/internal/config"
	"github.com/spf13/cobra"
)

// backupDir returns the configured backup directory or ~/.tanklab/backups.
func backupDir(cfg *config.TanklabConfig) (string, error) {
	if cfg.Backup.Dir != "" {
		return cfg.Backup.Dir, nil
	}
	return backup.DefaultBackupDir()
}

// buildRetentionPolicy turns the retention settings into a policy. With
// nothing configured the last 10 backups are kept.
func buildRetentionPolicy(cfg *config.BackupConfig) backup.RetentionPolicy {
	var policies backup.AnyOf

	if cfg.Retention.MaxCount > 0 {
		policies = append(policies, backup.KeepLast(cfg.Retention.MaxCount))
	}
	if cfg.Retention.MaxAge != "" {
		if d, err := backup.ParseDuration(cfg.Retention.MaxAge); err == nil {
			policies = append(policies, backup.KeepNewerThan(d))
		}
	}

	switch len(policies) {
	case 0:
		return backup.KeepLast(10)
	case 1:
		return policies[0]
	default:
		return policies
	}
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export all users and results to a backup file",
		Long: `Backup writes every user and every stored result to a compressed,
checksummed file.

Default location: ~/.tanklab/backups/tanklab-backup-YYYYMMDD-HHMMSS.bak
Old backups in that directory are pruned by the retention policy
(backup.retention.max_count, backup.retention.max_age; default: last 10).`,
		Example: `  tanklab backup
  tanklab backup --output class-2026.bak
  tanklab backup list
  tanklab backup verify class-2026.bak`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			outputPath, _ := cmd.Flags().GetString("output")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if outputPath == "" {
				dir, err := backupDir(a.cfg)
				if err != nil {
					return fmt.Errorf("failed to get backup directory: %w", err)
				}
				outputPath = backup.GenerateBackupPath(dir)
			}

			header, err := backup.Backup(cmd.Context(), a.store, outputPath, map[string]string{
				"tanklab_version": version,
				"backend":         a.cfg.Store.Backend,
			})
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			if _, err := backup.ApplyRetention(filepath.Dir(outputPath), buildRetentionPolicy(&a.cfg.Backup)); err != nil {
				a.logger.Warn("failed to apply retention", "error", err)
			}

			var sizeBytes int64
			if info, err := os.Stat(outputPath); err == nil {
				sizeBytes = info.Size()
			}

			if jsonOut {
				return encodeJSON(cmd, map[string]any{
					"path":         outputPath,
					"user_count":   header.UserCount,
					"result_count": header.ResultCount,
					"version":      header.Version,
					"checksum":     header.Checksum,
					"size_bytes":   sizeBytes,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup created: %d users, %d results (%d bytes)\n",
				header.UserCount, header.ResultCount, sizeBytes)
			fmt.Fprintf(cmd.OutOrStdout(), "  Path: %s\n", outputPath)
			return nil
		},
	}
	cmd.Flags().String("output", "", "Output file path (default: auto-generated in the backup directory)")

	cmd.AddCommand(
		newBackupListCmd(),
		newBackupVerifyCmd(),
	)
	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups in the backup directory, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir, err := backupDir(cfg)
			if err != nil {
				return err
			}
			backups, err := backup.ListBackups(dir)
			if err != nil {
				return err
			}

			if jsonOut {
				return encodeJSON(cmd, map[string]any{"dir": dir, "backups": backups, "count": len(backups)})
			}
			if len(backups) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No backups in %s\n", dir)
				return nil
			}
			for _, b := range backups {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  v%d  %8d bytes  %s\n",
					b.CreatedAt.Local().Format("2006-01-02 15:04:05"), b.Version, b.Size, filepath.Base(b.Path))
			}
			return nil
		},
	}
}

func newBackupVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Check a backup's checksum and show its header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			path := args[0]

			info, err := backup.Info(path)
			if err != nil {
				return err
			}
			if info.Version == backup.FormatV2 {
				if err := backup.VerifyChecksum(path); err != nil {
					return fmt.Errorf("backup is corrupt: %w", err)
				}
			}

			if jsonOut {
				return encodeJSON(cmd, map[string]any{"path": path, "valid": true, "header": info})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: v%d backup from %s, %d users, %d results\n",
				info.Version, info.CreatedAt.Local().Format("2006-01-02 15:04:05"), info.UserCount, info.ResultCount)
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Import users and results from a backup file",
		Long: `Restore reads a backup (either format) into the store.

Modes:
  merge    keep existing users; skip results whose run id is already stored (default)
  replace  clear the store first`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			modeFlag, _ := cmd.Flags().GetString("mode")

			mode, err := backup.ParseRestoreMode(modeFlag)
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := backup.Restore(cmd.Context(), a.store, args[0], mode)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			if jsonOut {
				return encodeJSON(cmd, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restore complete: %d users restored, %d skipped; %d results restored, %d skipped\n",
				result.UsersRestored, result.UsersSkipped, result.ResultsRestored, result.ResultsSkipped)
			return nil
		},
	}
	cmd.Flags().String("mode", string(backup.RestoreMerge), "Restore mode: merge or replace")
	return cmd
}
