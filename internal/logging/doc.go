// Package logging provides structured logging with per-module log levels.
//
// Records go to stderr, since stdout carries the echoed server console, and
// to the systemd journal when journald is available. Under systemd, where
// stderr is already captured by the journal, only the journal handler is used.
//
// Initialize once at startup, and again whenever the configuration is reloaded:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"game":   "debug",
//			"notify": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("game")
//	logger.Info("Player joined", "player", name)
//
// Module loggers are cached; re-initializing updates their levels in place.
//
// When running as a service:
//
//	journalctl -t mcsupervisor -f
//	journalctl -t mcsupervisor MODULE=game
//	journalctl -t mcsupervisor -p warning
//
// Example TOML configuration. Keys other than level and format are module names:
//
//	[logging]
//	level = "info"
//	format = "text"
//	process = "debug"
//	api = "warn"
package logging
