// Package config loads, normalizes, and validates editor configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes the knobs the
// CLI needs: where projects and logs live, which media backend decoder actors
// open, how deep their mailboxes are, and how the headless render loop paces
// itself.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
