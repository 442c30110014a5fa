// Package audioconv shells out to ffmpeg for the two conversions the
// pipeline needs: compressing audio ahead of upload and cutting chunk
// segments out of a prepared file.
package audioconv

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Compress re-encodes the source audio at the given bitrate. The destination
// extension selects the container; Opus in Ogg is the default pairing.
func Compress(ctx context.Context, ffmpegBinary, source, dest string, bitrateKbps int) error {
	if bitrateKbps <= 0 {
		return fmt.Errorf("compress audio: invalid bitrate %d", bitrateKbps)
	}
	codec := codecForDest(dest)
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-map_metadata", "-1",
		"-ac", "1",
		"-c:a", codec,
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		dest,
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg compress: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ExtractSegment cuts a time-range segment out of the source audio without
// re-encoding, so chunk boundaries stay cheap and sizes stay predictable.
func ExtractSegment(ctx context.Context, ffmpegBinary, source string, startSec, durationSec float64, dest string) error {
	if startSec < 0 {
		return fmt.Errorf("extract segment: invalid start %.2f", startSec)
	}
	if durationSec <= 0 {
		return fmt.Errorf("extract segment: invalid duration %.2f", durationSec)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(startSec),
		"-t", formatSeconds(durationSec),
		"-i", source,
		"-vn",
		"-c:a", "copy",
		dest,
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract segment: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func codecForDest(dest string) string {
	lower := strings.ToLower(dest)
	switch {
	case strings.HasSuffix(lower, ".ogg"), strings.HasSuffix(lower, ".opus"):
		return "libopus"
	case strings.HasSuffix(lower, ".mp3"):
		return "libmp3lame"
	case strings.HasSuffix(lower, ".m4a"), strings.HasSuffix(lower, ".aac"):
		return "aac"
	default:
		return "libopus"
	}
}

func formatSeconds(value float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", value), "0"), ".")
}
