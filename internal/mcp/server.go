// Package mcp exposes the tank lab as an MCP (Model Context Protocol) server
// so assistants can register users, run experiments and read rankings.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/tanklab/internal/backup"
	"github.com/nvandessel/tanklab/internal/logging"
	"github.com/nvandessel/tanklab/internal/ratelimit"
	"github.com/nvandessel/tanklab/internal/session"
	"github.com/nvandessel/tanklab/internal/store"
)

// Server wraps the MCP SDK server around a session.Service.
type Server struct {
	server   *sdk.Server
	svc      *session.Service
	audit    *AuditLogger
	limiters *ratelimit.ToolLimiters
	logger   *slog.Logger

	store     store.ResultStore // nil disables the backup tools
	backupDir string
	retention backup.RetentionPolicy
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "tanklab")
	Version string // Server version

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string

	// Store enables tank_backup and tank_restore. Backups are written to
	// BackupDir (default ~/.tanklab/backups) and pruned with Retention
	// (default: keep the last 10). Caller-supplied paths must stay inside
	// BackupDir.
	Store     store.ResultStore
	BackupDir string
	Retention backup.RetentionPolicy

	Logger *slog.Logger
}

// NewServer creates an MCP server with the tank lab tools registered.
func NewServer(svc *session.Service, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("session service is required")
	}

	s := &Server{
		server: sdk.NewServer(&sdk.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, &sdk.ServerOptions{}),
		svc:      svc,
		limiters:  ratelimit.NewToolLimiters(),
		logger:    cfg.Logger,
		store:     cfg.Store,
		backupDir: cfg.BackupDir,
		retention: cfg.Retention,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if cfg.AuditDir != "" {
		audit, err := NewAuditLogger(cfg.AuditDir)
		if err != nil {
			// Auditing is best-effort; the tools still work without it.
			s.logger.Warn("audit log disabled", "error", err)
		}
		s.audit = audit
	}

	if s.store != nil {
		if s.backupDir == "" {
			dir, err := backup.DefaultBackupDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get backup directory: %w", err)
			}
			s.backupDir = dir
		}
		if s.retention == nil {
			s.retention = backup.KeepLast(10)
		}
	}

	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until the client disconnects, the context is
// cancelled, or the process receives an interrupt.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.audit.Close()
	return err
}

// Close releases the audit log. The session's store is owned by the caller.
func (s *Server) Close() error {
	return s.audit.Close()
}
