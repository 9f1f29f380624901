package elevenlabs_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vitormoschetta/go-voice-coach/internal/infra"
	"github.com/vitormoschetta/go-voice-coach/internal/infra/elevenlabs"
)

func TestClient_Speak(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/text-to-speech/voice-1" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("xi-api-key") != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-audio"))
	}))
	defer server.Close()

	client, err := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:  "secret",
		BaseURL: server.URL,
		VoiceID: "voice-1",
	}, infra.DefaultRetryConfig())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	audio, err := client.Speak(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("Speak error: %v", err)
	}
	if string(audio) != "ID3-audio" {
		t.Errorf("audio: got %q", audio)
	}
	if got["text"] != "hello" || got["model_id"] != elevenlabs.DefaultModelID || got["language_code"] != "en" {
		t.Errorf("request body: %v", got)
	}
}

func TestClient_SpeakError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"detail": map[string]string{"status": "invalid_api_key", "message": "Invalid API key"},
		})
	}))
	defer server.Close()

	client, err := elevenlabs.NewClient(elevenlabs.Config{APIKey: "bad", BaseURL: server.URL}, infra.DefaultRetryConfig())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	_, err = client.Speak(context.Background(), "hello", "en")
	var se *infra.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error: got %v, want StatusError", err)
	}
	if se.Code != http.StatusUnauthorized || se.Body != "Invalid API key" {
		t.Errorf("StatusError: %+v", se)
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := elevenlabs.NewClient(elevenlabs.Config{}, infra.DefaultRetryConfig()); err == nil {
		t.Error("expected error without api key")
	}
}
