// Package config loads, normalizes, and validates the pipeline configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and DEEPGRAM_API_KEY (optionally sourced from .env files).
// The Config type centralizes every knob the daemon and CLI need, from
// staging directories to chunking budgets and provider credentials.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical provider names, and clear validation errors.
package config
