// Package queue persists transcription jobs in a SQLite database and tracks
// their progress through the pipeline statuses. The store is the single
// source of truth for the daemon, the CLI, and stage handlers; all writers
// share one connection with WAL journaling and busy retries.
package queue
