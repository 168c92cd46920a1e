// Package config loads, normalizes, and validates Vantage configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// server, CLI, and sync core need: data and log directories, the local
// database locations, the API bind address, and camera navigation tuning.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
