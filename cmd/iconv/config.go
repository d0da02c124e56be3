package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/mnightingale/iconv"
)

// fileConfig is the optional TOML configuration. Flags given on the command
// line take precedence over it.
type fileConfig struct {
	From        string `toml:"from"`
	To          string `toml:"to"`
	Errors      string `toml:"errors"`
	Jobs        int    `toml:"jobs"`
	MetricsFile string `toml:"metrics_file"`
}

func loadConfig(path string) (*fileConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg fileConfig
	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Jobs < 0 {
		return nil, fmt.Errorf("%w: jobs must not be negative, got %d", errInvalidConfig, cfg.Jobs)
	}
	if _, err := iconv.ParseErrorPolicy(cfg.Errors); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	return &cfg, nil
}
