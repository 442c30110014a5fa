package chunking

import (
	"math"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/config"
)

const bytesPerMiB = 1_048_576

// Options captures the audio-splitting knobs. MaxMB is the provider upload
// ceiling in MiB, SafetyMB a margin subtracted from it, BitrateKbps the
// assumed audio bitrate used to convert the byte budget into seconds, and
// MinChunkSec a floor so pathological bitrates never produce confetti chunks.
type Options struct {
	Enabled     bool
	MaxMB       float64
	SafetyMB    float64
	BitrateKbps int
	MinChunkSec int
	SplitTags   bool
}

// OptionsFromConfig copies the persisted chunking settings.
func OptionsFromConfig(cfg config.Chunking) Options {
	return Options{
		Enabled:     cfg.Enabled,
		MaxMB:       cfg.MaxMB,
		SafetyMB:    cfg.SafetyMB,
		BitrateKbps: cfg.BitrateKbps,
		MinChunkSec: cfg.MinChunkSec,
		SplitTags:   cfg.SplitTags,
	}
}

// BudgetBytes returns the hard upload ceiling in bytes.
func (o Options) BudgetBytes() int64 {
	return int64(o.MaxMB * bytesPerMiB)
}

// TargetBytes returns the per-chunk byte budget after the safety margin.
func (o Options) TargetBytes() int64 {
	return int64((o.MaxMB - o.SafetyMB) * bytesPerMiB)
}

// BytesPerSecond converts the configured bitrate into a byte rate.
func (o Options) BytesPerSecond() float64 {
	return float64(o.BitrateKbps) * 1000 / 8
}

// ChunkSeconds derives the target chunk duration:
//
//	chunk_seconds = max(minChunkSec, floor(target_bytes / bytes_per_second))
func (o Options) ChunkSeconds() int {
	bps := o.BytesPerSecond()
	if bps <= 0 {
		return o.MinChunkSec
	}
	seconds := int(math.Floor(float64(o.TargetBytes()) / bps))
	if seconds < o.MinChunkSec {
		return o.MinChunkSec
	}
	return seconds
}

// ClampToLimit lowers MaxMB when a provider's upload limit is tighter than
// the configured ceiling. A zero limit means unlimited and leaves the
// options untouched.
func (o Options) ClampToLimit(limitBytes int64) Options {
	if limitBytes <= 0 {
		return o
	}
	limitMB := float64(limitBytes) / bytesPerMiB
	if limitMB < o.MaxMB {
		o.MaxMB = limitMB
	}
	return o
}

// Chunk is a time-bounded slice of the source audio.
type Chunk struct {
	Index    int     `json:"index"` // 1-based
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

// DurationSec returns the chunk length in seconds.
func (c Chunk) DurationSec() float64 {
	return c.EndSec - c.StartSec
}

// SingleChunk returns a one-chunk plan covering the whole file, used when
// splitting is disabled or the provider has no upload limit.
func SingleChunk(durationSec float64) []Chunk {
	return []Chunk{{Index: 1, StartSec: 0, EndSec: math.Max(durationSec, 0)}}
}

// NeedsSplit reports whether a payload of the given size exceeds the upload
// budget and chunking is enabled.
func (o Options) NeedsSplit(sizeBytes int64) bool {
	return o.Enabled && sizeBytes > o.BudgetBytes()
}

// Plan computes the chunk list for a payload. Audio under budget (or with an
// unknown duration, which cannot be sliced) maps to a single chunk covering
// the whole file. Otherwise consecutive ChunkSeconds-long slices cover the
// duration, the final chunk absorbing the remainder.
func (o Options) Plan(sizeBytes int64, durationSec float64) []Chunk {
	if !o.NeedsSplit(sizeBytes) || durationSec <= 0 {
		return []Chunk{{Index: 1, StartSec: 0, EndSec: math.Max(durationSec, 0)}}
	}

	step := float64(o.ChunkSeconds())
	if step >= durationSec {
		return []Chunk{{Index: 1, StartSec: 0, EndSec: durationSec}}
	}

	count := int(math.Ceil(durationSec / step))
	chunks := make([]Chunk, 0, count)
	for start := 0.0; start < durationSec; start += step {
		end := math.Min(start+step, durationSec)
		chunks = append(chunks, Chunk{Index: len(chunks) + 1, StartSec: start, EndSec: end})
	}
	return chunks
}
