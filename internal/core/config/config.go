// Package config handles configuration loading and validation for revq.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reviewkit/revq/internal/core/review"
)

// Config holds the application configuration.
type Config struct {
	// GitPath is the git executable to spawn.
	GitPath string `yaml:"git_path"`
	// Base pins the review base ref; empty means auto-detect.
	Base string `yaml:"base"`
	// Mode is the default review mode: by-file or by-commit.
	Mode string `yaml:"mode"`
	// ContextLines is the unified-diff context passed to git.
	ContextLines int `yaml:"context_lines"`
	// IdentityContext is how many surrounding file lines feed each
	// hunk's content identifier.
	IdentityContext int `yaml:"identity_context"`
	// Ignore drops matching paths from the change set (doublestar globs).
	Ignore []string `yaml:"ignore"`
	// AutoFetch refreshes origin refs in the background, at most hourly.
	AutoFetch bool   `yaml:"auto_fetch"`
	DataDir   string `yaml:"-"` // set by caller, not from config file
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		GitPath:         "git",
		Mode:            string(review.ModeFile),
		ContextLines:    review.DefaultContextLines,
		IdentityContext: review.DefaultIdentityContext,
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.GitPath == "" {
		c.GitPath = defaults.GitPath
	}
	if c.Mode == "" {
		c.Mode = defaults.Mode
	}
	if c.ContextLines == 0 {
		c.ContextLines = defaults.ContextLines
	}
	if c.IdentityContext == 0 {
		c.IdentityContext = defaults.IdentityContext
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.GitPath == "" {
		return fmt.Errorf("git_path cannot be empty")
	}

	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if _, err := review.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("mode must be %q or %q, got %q", review.ModeFile, review.ModeCommit, c.Mode)
	}

	if c.ContextLines < 0 {
		return fmt.Errorf("context_lines cannot be negative")
	}

	if c.IdentityContext < 0 {
		return fmt.Errorf("identity_context cannot be negative")
	}

	return nil
}

// ReviewMode returns the configured default review mode.
func (c *Config) ReviewMode() review.Mode {
	mode, _ := review.ParseMode(c.Mode)
	return mode
}
