// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"testing"

	"clop/internal/config"
)

// NewConfig returns a validated configuration rooted in per-test temp
// directories.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Workers = 2
	cfg.DataDir = t.TempDir()
	cfg.TempDir = t.TempDir()
	cfg.OutputDir = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return cfg
}
