// Package workflow advances queue items through the transcription pipeline.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into registered stage handlers (prober, preparer, transcriber,
// exporter) while capturing progress and failure metadata. It also aggregates
// queue stats, calls stage health checks, and emits queue-level notifications
// when processing starts or completes.
//
// The pipeline is strictly linear: pending items are probed, probed items
// prepared, prepared items transcribed, and transcribed items exported. A
// single runner processes one item at a time, which keeps provider rate
// limits and ffmpeg load predictable.
package workflow
