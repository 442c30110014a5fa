package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/transcription"
)

// writeSRT renders stored provider segments as SubRip subtitles.
func writeSRT(target, segmentsJSON string) error {
	var segments []transcription.Segment
	if err := json.Unmarshal([]byte(segmentsJSON), &segments); err != nil {
		return fmt.Errorf("decode segments: %w", err)
	}

	var builder strings.Builder
	cue := 0
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		cue++
		fmt.Fprintf(&builder, "%d\n%s --> %s\n%s\n\n",
			cue, srtTimestamp(segment.StartSec), srtTimestamp(segment.EndSec), text)
	}
	if cue == 0 {
		return fmt.Errorf("no usable segments")
	}
	return os.WriteFile(target, []byte(builder.String()), 0o644)
}

// srtTimestamp formats seconds as HH:MM:SS,mmm.
func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int64(math.Round(seconds * 1000))
	hours := millis / 3_600_000
	millis -= hours * 3_600_000
	minutes := millis / 60_000
	millis -= minutes * 60_000
	secs := millis / 1000
	millis -= secs * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
