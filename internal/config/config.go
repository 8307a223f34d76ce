// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken string
	DataDir     string
	SubmitDelay time.Duration
}

// DBPath returns the SQLite database path under the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "reviews.db")
}

// LogDir returns the directory holding the per-review log mirrors.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "review_logs")
}

// HasGitHubToken returns true when a token is configured. Without one the
// tool still works locally; remote titles and submission are unavailable.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. REVIEWDRAFT_GITHUB_TOKEN is optional. Optional variables with
// defaults: REVIEWDRAFT_DATA_DIR (~/.reviewdraft) and
// REVIEWDRAFT_SUBMIT_DELAY (600ms), the pause between comment submissions.
func Load() (*Config, error) {
	token := os.Getenv("REVIEWDRAFT_GITHUB_TOKEN")

	dataDir := os.Getenv("REVIEWDRAFT_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir for default data dir: %w", err)
		}
		dataDir = filepath.Join(home, ".reviewdraft")
	}

	submitDelay := 600 * time.Millisecond
	if v, ok := os.LookupEnv("REVIEWDRAFT_SUBMIT_DELAY"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("REVIEWDRAFT_SUBMIT_DELAY has invalid duration %q: %w", v, err)
		}
		submitDelay = parsed
	}

	return &Config{
		GitHubToken: token,
		DataDir:     dataDir,
		SubmitDelay: submitDelay,
	}, nil
}
