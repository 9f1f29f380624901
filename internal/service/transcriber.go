package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// tempAudio é o arquivo temporário de um upload. Pertence à requisição que o
// criou e é removido por release em todos os caminhos de saída.
type tempAudio struct {
	path string
	size int64
}

func spoolAudio(dir string, audio io.Reader, ext string) (*tempAudio, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "upload-"+uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("creating temp audio: %w", err)
	}

	t := &tempAudio{path: path}
	n, copyErr := io.Copy(f, audio)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		t.release()
		if copyErr != nil {
			return nil, fmt.Errorf("writing temp audio: %w", copyErr)
		}
		return nil, fmt.Errorf("closing temp audio: %w", closeErr)
	}
	t.size = n
	return t, nil
}

func (t *tempAudio) release() error {
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Transcriber grava o upload em disco, chama o motor de reconhecimento e
// remove o arquivo.
type Transcriber struct {
	engine  Recognizer
	tempDir string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewTranscriber aceita engine nil quando o motor não carregou no startup.
func NewTranscriber(engine Recognizer, tempDir string, timeout time.Duration, logger zerolog.Logger) *Transcriber {
	return &Transcriber{
		engine:  engine,
		tempDir: tempDir,
		timeout: timeout,
		logger:  logger.With().Str("component", "transcriber").Logger(),
	}
}

func (t *Transcriber) Available() bool {
	return t.engine != nil
}

// Transcribe devolve o texto reconhecido. Texto vazio (silêncio) não é erro.
// filename só é usado para preservar a extensão que o motor usa para detectar o formato.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if t.engine == nil {
		return "", ErrTranscriberUnavailable
	}
	if audio == nil {
		return "", ErrMissingAudio
	}

	tmp, err := spoolAudio(t.tempDir, audio, audioExt(filename))
	if err != nil {
		t.logger.Error().Err(err).Msg("storing upload failed")
		return "", err
	}
	defer func() {
		if err := tmp.release(); err != nil {
			t.logger.Error().Err(err).Str("path", tmp.path).Msg("removing temp audio failed")
		}
	}()

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := t.engine.Recognize(ctx, tmp.path)
	if err != nil {
		t.logger.Error().
			Err(err).
			Str("engine", t.engine.Name()).
			Int64("bytes", tmp.size).
			Str("ext", filepath.Ext(tmp.path)).
			Dur("elapsed", time.Since(start)).
			Msg("transcription failed")
		return "", fmt.Errorf("transcribing with %s: %w", t.engine.Name(), err)
	}

	text = strings.TrimSpace(text)
	t.logger.Info().
		Str("engine", t.engine.Name()).
		Int64("bytes", tmp.size).
		Int("chars", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("transcribed audio")
	return text, nil
}

func audioExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".webm", ".wav", ".mp3", ".m4a", ".ogg", ".flac", ".mp4", ".mpeg", ".mpga", ".oga", ".opus":
		return ext
	default:
		return ".webm"
	}
}
