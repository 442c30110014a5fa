package chunking

import (
	"fmt"
	"math"
	"strings"
)

// SplitTag renders the inline marker recorded between merged transcript
// segments: [Chunk {n} • {mm:ss} – {mm:ss}]. Minutes keep counting past an
// hour so long recordings stay unambiguous.
func SplitTag(chunk Chunk) string {
	return fmt.Sprintf("[Chunk %d • %s – %s]", chunk.Index, Clock(chunk.StartSec), Clock(chunk.EndSec))
}

// Clock formats a second offset as zero-padded mm:ss.
func Clock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Merge assembles per-chunk transcripts into the final text, in chunk order.
// When tagging is requested and the audio was actually split, each chunk's
// text is preceded by its split tag. Empty chunk texts are kept (their tags
// still mark the silent range) but pure-whitespace runs are trimmed.
func Merge(chunks []Chunk, texts []string, withTags bool) string {
	if len(texts) == 0 {
		return ""
	}
	if len(texts) == 1 && !(withTags && len(chunks) > 1) {
		return strings.TrimSpace(texts[0])
	}

	tagged := withTags && len(chunks) > 1
	parts := make([]string, 0, len(texts)*2)
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if tagged && i < len(chunks) {
			parts = append(parts, SplitTag(chunks[i]))
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
