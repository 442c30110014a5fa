// Package language normalizes user- and metadata-supplied language
// identifiers to the ISO 639-1 codes transcription providers expect.
package language
