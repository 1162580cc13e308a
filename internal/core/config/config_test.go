package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reviewkit/revq/internal/core/review"
)

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load("", tmpDir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.GitPath != "git" {
		t.Errorf("GitPath = %q, want %q", cfg.GitPath, "git")
	}
	if cfg.Mode != "by-file" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "by-file")
	}
	if cfg.ContextLines != 3 {
		t.Errorf("ContextLines = %d, want 3", cfg.ContextLines)
	}
	if cfg.IdentityContext != 3 {
		t.Errorf("IdentityContext = %d, want 3", cfg.IdentityContext)
	}
	if cfg.AutoFetch {
		t.Error("AutoFetch should default to false")
	}
	if cfg.DataDir != tmpDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, tmpDir)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `git_path: /usr/local/bin/git
base: origin/develop
mode: by-commit
context_lines: 5
identity_context: 2
ignore:
  - "**/*.pb.go"
  - vendor/**
auto_fetch: true
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath, tmpDir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.GitPath != "/usr/local/bin/git" {
		t.Errorf("GitPath = %q", cfg.GitPath)
	}
	if cfg.Base != "origin/develop" {
		t.Errorf("Base = %q", cfg.Base)
	}
	if cfg.Mode != "by-commit" {
		t.Errorf("Mode = %q", cfg.Mode)
	}
	if cfg.ContextLines != 5 {
		t.Errorf("ContextLines = %d", cfg.ContextLines)
	}
	if cfg.IdentityContext != 2 {
		t.Errorf("IdentityContext = %d", cfg.IdentityContext)
	}
	if len(cfg.Ignore) != 2 || cfg.Ignore[0] != "**/*.pb.go" || cfg.Ignore[1] != "vendor/**" {
		t.Errorf("Ignore = %v", cfg.Ignore)
	}
	if !cfg.AutoFetch {
		t.Error("AutoFetch = false, want true")
	}
	if cfg.DataDir != tmpDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, tmpDir)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(filepath.Join(tmpDir, "does-not-exist.yaml"), tmpDir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GitPath != "git" {
		t.Errorf("GitPath = %q, want default", cfg.GitPath)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("mode: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath, tmpDir)
	if err == nil {
		t.Fatal("Load() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("Load() error = %q, want parse error", err)
	}
}

func TestLoadInvalidMode(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("mode: by-chunk"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath, tmpDir)
	if err == nil {
		t.Fatal("Load() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("Load() error = %q, want invalid config", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  Config{GitPath: "git", DataDir: "/tmp", Mode: "by-file"},
		},
		{
			name:    "missing git path",
			cfg:     Config{DataDir: "/tmp", Mode: "by-file"},
			wantErr: "git_path cannot be empty",
		},
		{
			name:    "missing data dir",
			cfg:     Config{GitPath: "git", Mode: "by-file"},
			wantErr: "data directory cannot be empty",
		},
		{
			name:    "bad mode",
			cfg:     Config{GitPath: "git", DataDir: "/tmp", Mode: "files"},
			wantErr: "mode must be",
		},
		{
			name:    "negative context lines",
			cfg:     Config{GitPath: "git", DataDir: "/tmp", Mode: "by-file", ContextLines: -1},
			wantErr: "context_lines cannot be negative",
		},
		{
			name:    "negative identity context",
			cfg:     Config{GitPath: "git", DataDir: "/tmp", Mode: "by-file", IdentityContext: -2},
			wantErr: "identity_context cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				return
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	c := Config{DataDir: "/tmp"}
	c.applyDefaults()

	if c.GitPath != "git" {
		t.Errorf("GitPath = %q, want %q", c.GitPath, "git")
	}
	if c.Mode != "by-file" {
		t.Errorf("Mode = %q, want %q", c.Mode, "by-file")
	}
	if c.ContextLines != 3 {
		t.Errorf("ContextLines = %d, want 3", c.ContextLines)
	}
	if c.IdentityContext != 3 {
		t.Errorf("IdentityContext = %d, want 3", c.IdentityContext)
	}
}

func TestReviewMode(t *testing.T) {
	c := Config{Mode: "by-commit"}
	if got := c.ReviewMode(); got != review.ModeCommit {
		t.Errorf("ReviewMode() = %q, want %q", got, review.ModeCommit)
	}
}
