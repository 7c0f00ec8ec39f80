// Package config loads and validates the TOML configuration snapshot the
// optimisation engine reads at startup.
package config
