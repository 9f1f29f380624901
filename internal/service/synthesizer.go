package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	MimeTypeMP3     = "audio/mpeg"
	DefaultLanguage = "en"
	SpeechFilename  = "speech.mp3"
)

// AudioBlob é o áudio sintetizado, inteiro em memória.
type AudioBlob struct {
	Data     []byte
	MimeType string
	Filename string
}

// Synthesizer chama o motor de síntese e empacota o resultado como AudioBlob.
type Synthesizer struct {
	engine  Speaker
	timeout time.Duration
	logger  zerolog.Logger
}

// NewSynthesizer aceita engine nil quando o motor não está configurado.
func NewSynthesizer(engine Speaker, timeout time.Duration, logger zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		engine:  engine,
		timeout: timeout,
		logger:  logger.With().Str("component", "synthesizer").Logger(),
	}
}

func (s *Synthesizer) Available() bool {
	return s.engine != nil
}

// Synthesize rejeita texto vazio antes de qualquer chamada externa.
// lang vazio usa DefaultLanguage.
func (s *Synthesizer) Synthesize(ctx context.Context, text, lang string) (*AudioBlob, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if s.engine == nil {
		return nil, ErrSynthesizerUnavailable
	}
	if lang == "" {
		lang = DefaultLanguage
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	data, err := s.engine.Speak(ctx, text, lang)
	if err == nil && len(data) == 0 {
		err = fmt.Errorf("engine returned no audio")
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("engine", s.engine.Name()).
			Str("lang", lang).
			Int("chars", len(text)).
			Dur("elapsed", time.Since(start)).
			Msg("speech synthesis failed")
		return nil, fmt.Errorf("synthesizing with %s: %w", s.engine.Name(), err)
	}

	s.logger.Info().
		Str("engine", s.engine.Name()).
		Int("chars", len(text)).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("synthesized speech")

	return &AudioBlob{
		Data:     data,
		MimeType: MimeTypeMP3,
		Filename: SpeechFilename,
	}, nil
}
