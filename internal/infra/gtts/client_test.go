package gtts_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/vitormoschetta/go-voice-coach/internal/infra"
	"github.com/vitormoschetta/go-voice-coach/internal/infra/gtts"
)

func TestSplitText(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := gtts.SplitText("  Hello world  ", 100)
		if len(chunks) != 1 || chunks[0] != "Hello world" {
			t.Errorf("got %q", chunks)
		}
	})

	t.Run("splits on spaces", func(t *testing.T) {
		text := strings.TrimSpace(strings.Repeat("word ", 60))
		chunks := gtts.SplitText(text, 100)
		if len(chunks) < 3 {
			t.Fatalf("chunks: got %d, want at least 3", len(chunks))
		}
		for _, c := range chunks {
			if utf8.RuneCountInString(c) > 100 {
				t.Errorf("chunk too long: %d", utf8.RuneCountInString(c))
			}
		}
		if strings.Join(chunks, " ") != text {
			t.Error("chunks do not rebuild the original text")
		}
	})

	t.Run("prefers sentence boundaries", func(t *testing.T) {
		text := "First sentence is here. " + strings.Repeat("x ", 60)
		chunks := gtts.SplitText(text, 100)
		if chunks[0] != "First sentence is here." {
			t.Errorf("first chunk: got %q", chunks[0])
		}
	})

	t.Run("cuts long words", func(t *testing.T) {
		chunks := gtts.SplitText(strings.Repeat("a", 250), 100)
		if len(chunks) != 3 || len(chunks[2]) != 50 {
			t.Errorf("got %d chunks", len(chunks))
		}
	})

	t.Run("empty", func(t *testing.T) {
		if chunks := gtts.SplitText("   ", 100); len(chunks) != 0 {
			t.Errorf("got %q", chunks)
		}
	})
}

func TestClient_Speak(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate_tts" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		q := r.URL.Query()
		if q.Get("client") != "tw-ob" || q.Get("tl") != "en" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		queries = append(queries, q.Get("q"))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3" + q.Get("idx")))
	}))
	defer server.Close()

	client := gtts.NewClientWithURL(server.URL, infra.DefaultRetryConfig())
	text := strings.TrimSpace(strings.Repeat("hello ", 40))

	audio, err := client.Speak(context.Background(), text, "en")
	if err != nil {
		t.Fatalf("Speak error: %v", err)
	}
	if len(queries) != 3 {
		t.Fatalf("requests: got %d, want 3", len(queries))
	}
	if string(audio) != "ID30ID31ID32" {
		t.Errorf("audio: got %q", audio)
	}
	if strings.Join(queries, " ") != text {
		t.Error("chunks sent do not cover the text")
	}
}

func TestClient_SpeakFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	retry := infra.DefaultRetryConfig().WithAttempts(3)
	client := gtts.NewClientWithURL(server.URL, retry)

	if _, err := client.Speak(context.Background(), "hello", "en"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1 (403 is not retried)", calls)
	}
}
