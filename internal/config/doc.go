// Package config loads, normalizes, and validates ramandpid configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files from ~/.config/ramandpid/config.toml or a
// project-local ramandpid.toml. The Config type centralizes every knob the
// launcher, updater, and processing commands need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
