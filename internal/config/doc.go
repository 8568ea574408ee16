// Package config loads and validates the analyzer's YAML configuration and
// watches the config file for changes.
//
// Load reads the file, fills defaults, and validates. Watch (fsnotify) calls
// back with the freshly parsed config on every write; the analysis window
// constants are fixed at startup, so hot-reload is logs-only.
package config
