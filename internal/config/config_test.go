package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false for %s", path)
	}
	if cfg.Transcription.Provider != "openai" {
		t.Fatalf("expected default provider openai, got %q", cfg.Transcription.Provider)
	}
	if cfg.Chunking.MaxMB != 25.0 || cfg.Chunking.SafetyMB != 2.0 {
		t.Fatalf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.Chunking.BitrateKbps != 128 || cfg.Chunking.MinChunkSec != 30 {
		t.Fatalf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if !cfg.Chunking.SplitTags {
		t.Fatal("expected split tags enabled by default")
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("expected env fallback for api key, got %q", cfg.OpenAI.APIKey)
	}
}

func TestLoadParsesFileAndExpandsPaths(t *testing.T) {
	path := writeConfig(t, `
[paths]
staging_dir = "~/epicenter-staging"

[transcription]
provider = "deepgram"
language = "en"
output_formats = ["TXT", "txt", "srt"]

[deepgram]
api_key = "dg-test"

[chunking]
max_mb = 10.0
safety_mb = 1.0
bitrate_kbps = 64
min_chunk_sec = 15
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path %s, got %s (exists=%v)", path, resolved, exists)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("home dir: %v", err)
	}
	if want := filepath.Join(home, "epicenter-staging"); cfg.Paths.StagingDir != want {
		t.Fatalf("expected tilde expansion to %s, got %s", want, cfg.Paths.StagingDir)
	}
	if cfg.Transcription.Provider != "deepgram" {
		t.Fatalf("unexpected provider %q", cfg.Transcription.Provider)
	}
	if got := cfg.Transcription.OutputFormats; len(got) != 2 || got[0] != "txt" || got[1] != "srt" {
		t.Fatalf("expected deduped lowercase formats, got %v", got)
	}
	if cfg.Chunking.MaxMB != 10.0 || cfg.Chunking.MinChunkSec != 15 {
		t.Fatalf("unexpected chunking values: %+v", cfg.Chunking)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
[transcription]
provider = "carrier-pigeon"
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestLoadRejectsInvalidChunking(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "max below safety",
			body: "[chunking]\nmax_mb = 1.0\nsafety_mb = 2.0\n",
			want: "chunking.max_mb",
		},
		{
			name: "zero bitrate",
			body: "[chunking]\nbitrate_kbps = 0\n",
			want: "chunking.bitrate_kbps",
		},
		{
			name: "zero min chunk",
			body: "[chunking]\nmin_chunk_sec = 0\n",
			want: "chunking.min_chunk_sec",
		},
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q error, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadRequiresSelectedProviderCredentials(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "")
	path := writeConfig(t, `
[transcription]
provider = "deepgram"
`)
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "deepgram.api_key") {
		t.Fatalf("expected deepgram credential error, got %v", err)
	}
}

func TestWhisperXNeedsNoCredentials(t *testing.T) {
	path := writeConfig(t, `
[transcription]
provider = "whisperx"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WhisperX.Model != "small" || cfg.WhisperX.VADMethod != "silero" {
		t.Fatalf("unexpected whisperx defaults: %+v", cfg.WhisperX)
	}
}

func TestCreateSampleWritesParsableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}
