package main

import (
	"github.com/nvandessel/tanklab/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve the lab to MCP clients over stdio",
		Long: `Run tanklab as an MCP (Model Context Protocol) server on stdin/stdout.

Tools: tank_register, tank_login, tank_run_experiment, tank_latest_result,
tank_history, tank_ranking, tank_backup, tank_restore.
Resource: tanklab://ranking.

Backup and restore paths must stay inside the backup directory.

Tool calls are audited to ~/.tanklab/audit.jsonl without personal data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			noAudit, _ := cmd.Flags().GetBool("no-audit")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			auditDir := a.home
			if noAudit {
				auditDir = ""
			}
			dir, err := backupDir(a.cfg)
			if err != nil {
				return err
			}
			server, err := mcp.NewServer(a.svc, &mcp.Config{
				Name:      "tanklab",
				Version:   version,
				AuditDir:  auditDir,
				Store:     a.store,
				BackupDir: dir,
				Retention: buildRetentionPolicy(&a.cfg.Backup),
				Logger:    a.logger,
			})
			if err != nil {
				return err
			}
			defer server.Close()

			a.logger.Info("mcp server starting", "backend", a.cfg.Store.Backend)
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().Bool("no-audit", false, "Do not write the tool call audit log")
	return cmd
}
