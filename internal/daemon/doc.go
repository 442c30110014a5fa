// Package daemon hosts the long-running transcription service.
//
// The Daemon enforces single-instance execution with a file lock, owns the
// workflow manager lifecycle, and ingests new audio dropped into the watch
// directory. It also exposes the queue operations the IPC layer forwards to
// CLI clients.
package daemon
