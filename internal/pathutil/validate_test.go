package pathutil

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	backups := t.TempDir()
	exports := t.TempDir()
	nested := filepath.Join(backups, "2026")
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatal(err)
	}
	sep := string(os.PathSeparator)

	tests := []struct {
		name    string
		path    string
		allowed []string
		wantErr string
	}{
		{"file in allowed dir", filepath.Join(backups, "a.bak"), []string{backups}, ""},
		{"file in nested dir", filepath.Join(nested, "a.bak"), []string{backups}, ""},
		{"missing nested dirs", filepath.Join(backups, "x", "y", "a.bak"), []string{backups}, ""},
		{"the allowed dir itself", backups, []string{backups}, ""},
		{"second allowed dir", filepath.Join(exports, "a.bak"), []string{backups, exports}, ""},
		{"doubled separators", backups + sep + sep + "a.bak", []string{backups}, ""},
		{"other dir", filepath.Join(exports, "a.bak"), []string{backups}, "outside allowed directories"},
		{"dot-dot escape", backups + sep + ".." + sep + "etc" + sep + "passwd", []string{backups}, "outside allowed directories"},
		{"nested dot-dot escape", nested + sep + ".." + sep + ".." + sep + "a.bak", []string{backups}, "outside allowed directories"},
		{"sibling prefix", backups + "-evil" + sep + "a.bak", []string{backups}, "outside allowed directories"},
		{"null byte", filepath.Join(backups, "a\x00.bak"), []string{backups}, "null byte"},
		{"empty path", "", []string{backups}, "empty"},
		{"no allowed dirs", filepath.Join(backups, "a.bak"), nil, "no allowed directories"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, tt.allowed)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidatePath() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidatePath() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}

	backups := t.TempDir()
	outside := t.TempDir()
	inside := filepath.Join(backups, "real")
	if err := os.MkdirAll(inside, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(backups, "escape")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(inside, filepath.Join(backups, "link")); err != nil {
		t.Fatal(err)
	}

	if err := ValidatePath(filepath.Join(backups, "escape", "a.bak"), []string{backups}); err == nil {
		t.Error("link pointing outside should be rejected")
	}
	if err := ValidatePath(filepath.Join(backups, "link", "a.bak"), []string{backups}); err != nil {
		t.Errorf("link staying inside should be accepted: %v", err)
	}
}

func TestRedactPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"/home/ana/.tanklab/backups/tanklab-backup-1.bak", ".../backups/tanklab-backup-1.bak"},
		{"/a/b/c/d/e.csv", ".../d/e.csv"},
		{"/result.csv", "result.csv"},
		{"dir/result.csv", ".../dir/result.csv"},
		{"result.csv", "result.csv"},
		{"/home/ana/.tanklab/", ".../ana/.tanklab"},
	}
	for _, tt := range tests {
		if got := RedactPath(tt.input); got != tt.want {
			t.Errorf("RedactPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAllowedDirs(t *testing.T) {
	got := AllowedDirs("/srv/backups/", "", "/srv/backups", "/tmp/x")
	want := []string{filepath.Clean("/srv/backups"), filepath.Clean("/tmp/x")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllowedDirs() = %v, want %v", got, want)
	}
	if got := AllowedDirs(); len(got) != 0 {
		t.Errorf("AllowedDirs() = %v, want empty", got)
	}
}
