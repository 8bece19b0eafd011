// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"errors"
	"fmt"
	"runtime"
)

// Output formats.
const (
	FormatBinary = "binary"
	FormatYAML   = "yaml"
	FormatBoth   = "both"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string // hcl files, or .ugraph files with Decode
	OutputDir string
	Format    string
	Decode    bool

	LogFormat       string
	LogLevel        string
	Workers         int
	MergeDuplicates bool
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	switch cfg.Format {
	case "":
		cfg.Format = FormatBinary
	case FormatBinary, FormatYAML, FormatBoth:
	default:
		return nil, fmt.Errorf("invalid format %q: must be %q, %q or %q", cfg.Format, FormatBinary, FormatYAML, FormatBoth)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("invalid workers %d: must not be negative", cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &cfg, nil
}

func (c *Config) writesBinary() bool { return c.Format == FormatBinary || c.Format == FormatBoth }
func (c *Config) writesYAML() bool   { return c.Format == FormatYAML || c.Format == FormatBoth }
