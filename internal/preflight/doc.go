// Package preflight runs readiness checks before and during daemon
// operation: directory access, external binaries, and speech-to-text
// provider credentials. The status command renders these checks, and the
// daemon logs them once at startup.
package preflight
