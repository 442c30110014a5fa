package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"separators become dashes", "notes/2026: draft", "notes-2026- draft"},
		{"unsafe chars removed", `what? "quoted" <tag>|pipe`, "what quoted tagpipe"},
		{"control chars dropped", "line\x01one\x1ftwo", "lineonetwo"},
		{"whitespace trimmed", "  padded  ", "padded"},
		{"empty stays empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeFileName(tc.in); got != tc.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"FFmpeg", "ffmpeg"},
		{"WhisperX (uvx)", "whisperx__uvx"},
		{"already-safe_token", "already-safe_token"},
		{"", "unknown"},
		{"___", "unknown"},
	}
	for _, tc := range cases {
		if got := SanitizeToken(tc.in); got != tc.want {
			t.Fatalf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
