// Package transcription defines the provider contract shared by every
// speech-to-text backend: a request/result shape and the upload limit the
// preparation stage uses to decide whether a file needs chunking.
package transcription
