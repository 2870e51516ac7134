package mcp

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readAuditEntries(t *testing.T, path string) []AuditEntry {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("bad audit line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestAuditLogger_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	a, err := NewAuditLogger(dir)
	if err != nil {
		t.Fatalf("NewAuditLogger() error = %v", err)
	}

	a.Log(AuditEntry{Timestamp: time.Now(), Tool: "tank_login", Status: "success"})
	a.Log(AuditEntry{Timestamp: time.Now(), Tool: "tank_ranking", Status: "error", Error: "boom"})
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	path := filepath.Join(dir, AuditFileName)
	entries := readAuditEntries(t, path)
	if len(entries) != 2 || entries[1].Error != "boom" {
		t.Errorf("entries = %+v", entries)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("audit log permissions = %o, want 600", perm)
	}
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var a *AuditLogger
	a.Log(AuditEntry{Tool: "x"})
	if err := a.Close(); err != nil {
		t.Errorf("nil Close() = %v", err)
	}
}

func TestSanitizeToolParams(t *testing.T) {
	got := sanitizeToolParams(map[string]any{
		"email":            "ana@lab.edu",
		"name":             "Ana",
		"duration_seconds": 100,
		"secret_thing":     "dropped",
	})

	want := []string{"_param_count", "duration_seconds", "email", "name"}
	keys := sortedKeys(got)
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys = %v, want %v", keys, want)
			break
		}
	}
	if got["email"] != "(set)" || got["name"] != "(set)" {
		t.Errorf("personal data leaked: %v", got)
	}
	if got["duration_seconds"] != "100" || got["_param_count"] != "4" {
		t.Errorf("got %v", got)
	}
	if sanitizeToolParams(nil) != nil {
		t.Error("sanitizeToolParams(nil) should be nil")
	}

	paths := sanitizeToolParams(map[string]any{
		"output_path": "/home/ana/.tanklab/backups/final.bak",
		"input_path":  "",
		"mode":        "merge",
	})
	if paths["output_path"] != ".../backups/final.bak" {
		t.Errorf("output_path = %q, want redacted", paths["output_path"])
	}
	if _, ok := paths["input_path"]; ok {
		t.Error("empty input_path should be omitted")
	}
	if paths["mode"] != "merge" {
		t.Errorf("mode = %q", paths["mode"])
	}
}

func TestToolCallsAreAudited(t *testing.T) {
	dir := t.TempDir()
	server := setupTestServer(t)
	audit, err := NewAuditLogger(dir)
	if err != nil {
		t.Fatal(err)
	}
	server.audit.Close()
	server.audit = audit

	server.auditTool("tank_login", time.Now(), nil, map[string]any{"email": "ana@lab.edu"})
	server.auditTool("tank_run_experiment", time.Now(), errors.New("invalid"), map[string]any{"max_height": 10.0})
	server.Close()

	entries := readAuditEntries(t, filepath.Join(dir, AuditFileName))
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Status != "success" || entries[0].Params["email"] != "(set)" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Params["max_height"] != "10" {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}
