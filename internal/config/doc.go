// Package config loads shelfscan settings from YAML, .env files and
// SHELFSCAN_* environment variables.
package config
