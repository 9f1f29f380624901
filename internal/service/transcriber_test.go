package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitormoschetta/go-voice-coach/internal/service"
)

func assertRemoved(t *testing.T, paths []string) {
	t.Helper()
	if len(paths) == 0 {
		t.Fatal("recognizer was never called")
	}
	for _, p := range paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("temp audio %s still exists (stat err: %v)", p, err)
		}
	}
}

func TestTranscriber_Success(t *testing.T) {
	dir := t.TempDir()
	engine := &fakeRecognizer{text: "  hello there \n"}
	tr := service.NewTranscriber(engine, dir, time.Second, zerolog.Nop())

	text, err := tr.Transcribe(context.Background(), strings.NewReader("fake webm bytes"), "recording.webm")
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if text != "hello there" {
		t.Errorf("text: got %q", text)
	}
	if string(engine.contents[0]) != "fake webm bytes" {
		t.Errorf("engine saw %q, want full upload", engine.contents[0])
	}
	if filepath.Dir(engine.paths[0]) != dir {
		t.Errorf("temp audio written outside temp dir: %s", engine.paths[0])
	}
	if filepath.Ext(engine.paths[0]) != ".webm" {
		t.Errorf("extension not preserved: %s", engine.paths[0])
	}
	assertRemoved(t, engine.paths)
}

func TestTranscriber_EngineFailureStillRemovesTempAudio(t *testing.T) {
	engine := &fakeRecognizer{err: errEngineDown}
	tr := service.NewTranscriber(engine, t.TempDir(), time.Second, zerolog.Nop())

	_, err := tr.Transcribe(context.Background(), strings.NewReader("audio"), "clip.mp3")
	if !errors.Is(err, errEngineDown) {
		t.Fatalf("error: got %v, want wrapped engine error", err)
	}
	assertRemoved(t, engine.paths)
}

func TestTranscriber_EmptyTranscriptIsNotAnError(t *testing.T) {
	engine := &fakeRecognizer{text: ""}
	tr := service.NewTranscriber(engine, t.TempDir(), 0, zerolog.Nop())

	text, err := tr.Transcribe(context.Background(), strings.NewReader("silence"), "")
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if text != "" {
		t.Errorf("text: got %q, want empty", text)
	}
	if filepath.Ext(engine.paths[0]) != ".webm" {
		t.Errorf("default extension: got %s", engine.paths[0])
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestTranscriber_UploadReadFailureLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()
	engine := &fakeRecognizer{text: "unused"}
	tr := service.NewTranscriber(engine, dir, time.Second, zerolog.Nop())

	if _, err := tr.Transcribe(context.Background(), failingReader{}, "a.wav"); err == nil {
		t.Fatal("expected error for broken upload")
	}
	if len(engine.paths) != 0 {
		t.Error("engine should not be called when the upload cannot be stored")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not empty: %d entries", len(entries))
	}
}

func TestTranscriber_Unavailable(t *testing.T) {
	tr := service.NewTranscriber(nil, t.TempDir(), time.Second, zerolog.Nop())

	if tr.Available() {
		t.Error("Available: got true for nil engine")
	}
	_, err := tr.Transcribe(context.Background(), strings.NewReader("audio"), "a.webm")
	if !errors.Is(err, service.ErrTranscriberUnavailable) {
		t.Errorf("error: got %v, want ErrTranscriberUnavailable", err)
	}
}
