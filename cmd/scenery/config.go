package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/taigrr/scenery/pkg/loader"
)

// config is the optional TOML file. Loader option keys sit at the top level
// next to log_level, e.g.
//
//	log_level = "info"
//	flip_v = true
type config struct {
	Options  loader.Options `toml:"-"`
	LogLevel string         `toml:"log_level"`
}

func loadConfig(path string) (config, error) {
	cfg := config{Options: loader.DefaultOptions(), LogLevel: "warn"}
	if path == "" {
		return cfg, nil
	}
	opts, err := loader.ReadOptions(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	cfg.Options = opts

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	} else {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
