package main

import "log/slog"

type config struct {
	Port       string `yaml:"port"`
	APIBaseURL string `yaml:"apiBaseURL"`
	LogLevel   string `yaml:"logLevel"`
}

func (c *config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = "http://localhost:8000"
	}
}

func (c config) slogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
