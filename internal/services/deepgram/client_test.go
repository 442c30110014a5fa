package deepgram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/transcription"
)

func requestFor(path, lang string) transcription.Request {
	return transcription.Request{AudioPath: path, Language: lang}
}

const sampleResponse = `{
	"results": {
		"channels": [{
			"detected_language": "en",
			"alternatives": [{
				"transcript": "Hello world. Goodbye world.",
				"paragraphs": {
					"paragraphs": [{
						"start": 0, "end": 4.2,
						"sentences": [
							{"text": "Hello world.", "start": 0, "end": 1.8},
							{"text": "Goodbye world.", "start": 2.0, "end": 4.2}
						]
					}]
				}
			}]
		}]
	}
}`

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte("fake audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestTranscribeParsesSentences(t *testing.T) {
	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		if _, err := io.ReadAll(r.Body); err != nil {
			t.Errorf("read body: %v", err)
		}
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client, err := NewClient("dg-key", "nova-2", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	result, err := client.Transcribe(context.Background(), requestFor(writeAudio(t), "en"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "Hello world. Goodbye world." {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if len(result.Segments) != 2 || result.Segments[1].StartSec != 2.0 {
		t.Fatalf("unexpected segments: %#v", result.Segments)
	}
	if result.Language != "en" {
		t.Fatalf("unexpected language: %q", result.Language)
	}
	if gotAuth != "Token dg-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotQuery == "" {
		t.Fatal("expected query parameters")
	}
}

func TestTranscribeClassifiesAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient("bad-key", "", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	_, err = client.Transcribe(context.Background(), requestFor(writeAudio(t), ""))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTranscribeClassifiesServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient("dg-key", "", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	_, err = client.Transcribe(context.Background(), requestFor(writeAudio(t), ""))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("  ", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/projects" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"projects":[]}`))
	}))
	defer server.Close()

	client, err := NewClient("dg-key", "", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}
