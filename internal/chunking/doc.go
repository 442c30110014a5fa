// Package chunking turns upload budgets into chunk plans for oversized audio.
//
// Hosted transcription APIs cap upload sizes (commonly 25 MiB). When a
// recording exceeds the configured budget, the planner derives a target chunk
// duration from the assumed bitrate and slices the timeline into consecutive
// ranges. The package also owns the split-tag format and the merge step that
// reassembles per-chunk transcripts into one document.
package chunking
