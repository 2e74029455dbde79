// Package config provides configuration structures and utilities for arcrack.
// It defines the recovery job options, their defaults and validation, the
// YAML configuration file with per-archive overrides, and the XDG
// directories used for the session database.
package config
