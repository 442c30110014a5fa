// Package ffprobe wraps the ffprobe binary to inspect audio files before
// transcription: duration, size, bitrate, and stream metadata.
package ffprobe
