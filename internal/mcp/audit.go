package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/tanklab/internal/pathutil"
)

// AuditFileName is the audit log written under the audit directory.
const AuditFileName = "audit.jsonl"

// AuditEntry records one MCP tool invocation without its payload.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"` // "success" or "error"
	Error      string            `json:"error,omitempty"`
	Params     map[string]string `json:"params,omitempty"` // sanitized metadata only
}

// AuditLogger appends entries to a JSONL file. It is safe for concurrent
// use, and a nil *AuditLogger ignores every call.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens dir/audit.jsonl for appending, creating dir if needed.
func NewAuditLogger(dir string) (*AuditLogger, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating audit log directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, AuditFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log %s: %w", path, err)
	}
	return &AuditLogger{file: f}, nil
}

// Log appends entry as one line.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		_, _ = a.file.Write(data)
	}
}

// Close closes the log file.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Parameters whose values are safe to log verbatim. Everything else that
// is known is logged as "(set)"; unknown keys are dropped.
var (
	safeValueParams = map[string]bool{
		"duration_seconds": true,
		"inflow_rate":      true,
		"outflow_rate":     true,
		"max_height":       true,
		"role":             true,
		"top":              true,
		"best_per_user":    true,
		"include_series":   true,
		"mode":             true,
	}
	presenceOnlyParams = map[string]bool{
		"email": true,
		"name":  true,
	}
	// Paths are logged as .../<parent>/<file>.
	pathParams = map[string]bool{
		"output_path": true,
		"input_path":  true,
	}
)

// sanitizeToolParams reduces tool arguments to loggable metadata. Personal
// data (emails, names) is never written to the audit log.
func sanitizeToolParams(params map[string]any) map[string]string {
	if params == nil {
		return nil
	}

	result := make(map[string]string)
	for key, val := range params {
		switch {
		case safeValueParams[key]:
			result[key] = fmt.Sprintf("%v", val)
		case presenceOnlyParams[key]:
			result[key] = "(set)"
		case pathParams[key]:
			if p, ok := val.(string); ok && p != "" {
				result[key] = pathutil.RedactPath(p)
			}
		}
	}
	result["_param_count"] = fmt.Sprintf("%d", len(params))
	return result
}

// auditTool records a finished tool call.
func (s *Server) auditTool(tool string, start time.Time, err error, params map[string]any) {
	entry := AuditEntry{
		Timestamp:  start.UTC(),
		Tool:       tool,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     "success",
		Params:     sanitizeToolParams(params),
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
		s.logger.Warn("tool call failed", "tool", tool, "error", err)
	} else {
		s.logger.Debug("tool call", "tool", tool, "duration_ms", entry.DurationMs)
	}
	s.audit.Log(entry)
}
