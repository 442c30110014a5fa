package whisperx

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/transcription"
)

func requestFor(path string) transcription.Request {
	return transcription.Request{AudioPath: path}
}

func TestBuildArgsCPU(t *testing.T) {
	svc := NewService(Config{Model: "small"})
	args := svc.buildArgs("/audio/in.wav", "/out", "en")
	joined := strings.Join(args, " ")

	for _, want := range []string{"whisperx", "--model small", "--device cpu", "--compute_type float32", "--language en", "--vad_method silero"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected args to contain %q, got %s", want, joined)
		}
	}
	if strings.Contains(joined, "--hf_token") {
		t.Error("hf token should not appear without pyannote")
	}
}

func TestBuildArgsCUDAPyannote(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf-secret"})
	args := svc.buildArgs("/audio/in.wav", "/out", "")
	joined := strings.Join(args, " ")

	for _, want := range []string{"--device cuda", "--vad_method pyannote", "--hf_token hf-secret", CUDAIndexURL} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected args to contain %q, got %s", want, joined)
		}
	}
	if strings.Contains(joined, "--language") {
		t.Error("language flag should be omitted for auto-detect")
	}
}

func TestTranscribeLoadsSegments(t *testing.T) {
	workDir := t.TempDir()
	audio := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(audio, []byte("fake"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	svc := NewService(Config{WorkDir: workDir})
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		payload := whisperXPayload{Segments: []Segment{
			{Text: " Hello there. ", Start: 0, End: 2.5},
			{Text: "General greeting.", Start: 2.5, End: 5},
			{Text: "   ", Start: 5, End: 6},
		}}
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(workDir, "clip.json"), data, 0o644)
	})

	result, err := svc.Transcribe(context.Background(), requestFor(audio))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "Hello there. General greeting." {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(result.Segments))
	}
}

func TestTranscribeRequiresPath(t *testing.T) {
	svc := NewService(Config{})
	if _, err := svc.Transcribe(context.Background(), requestFor("  ")); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestUploadLimitIsUnlimited(t *testing.T) {
	if limit := NewService(Config{}).UploadLimitBytes(); limit != 0 {
		t.Fatalf("expected 0 limit, got %d", limit)
	}
}
