package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	safeDir := filepath.Join(tmpDir, "safe")
	unsafeDir := filepath.Join(tmpDir, "unsafe")
	for _, d := range []string{safeDir, unsafeDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	if err := os.Symlink(unsafeDir, filepath.Join(safeDir, "evil-symlink")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		safeDir   string
		wantError bool
	}{
		{"file in directory", filepath.Join(safeDir, "profile.png"), safeDir, false},
		{"nested new file", filepath.Join(safeDir, "plots", "profile.png"), safeDir, false},
		{"dot dot escape", filepath.Join(safeDir, "..", "unsafe", "x.png"), safeDir, true},
		{"absolute elsewhere", "/etc/passwd", safeDir, true},
		{"symlinked parent", filepath.Join(safeDir, "evil-symlink", "x.png"), safeDir, true},
		{"directory itself", safeDir, safeDir, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, tt.safeDir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantError %v", tt.filePath, err, tt.wantError)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	if err := ValidateOutputPath(filepath.Join(os.TempDir(), "profile.png")); err != nil {
		t.Errorf("temp dir path rejected: %v", err)
	}
	if err := ValidateOutputPath("profile.png"); err != nil {
		t.Errorf("relative path rejected: %v", err)
	}
	if err := ValidateOutputPath("/proc/self/profile.png"); err == nil {
		t.Error("expected /proc path to be rejected")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"loop-a", "loop-a"},
		{"Track 7 / north", "Track_7_north"},
		{"../../etc", "etc"},
		{"", "unknown"},
		{"***", "unknown"},
		{"lap_1.csv", "lap_1.csv"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
