package server

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/vitormoschetta/go-voice-coach/internal/config"
	"github.com/vitormoschetta/go-voice-coach/internal/infra"
	"github.com/vitormoschetta/go-voice-coach/internal/infra/elevenlabs"
	"github.com/vitormoschetta/go-voice-coach/internal/infra/googlespeech"
	"github.com/vitormoschetta/go-voice-coach/internal/infra/gtts"
	"github.com/vitormoschetta/go-voice-coach/internal/infra/whisper"
	"github.com/vitormoschetta/go-voice-coach/internal/persona"
	"github.com/vitormoschetta/go-voice-coach/internal/service"
)

// NewPipeline inicializa cada motor uma única vez. Um motor que falha fica
// indisponível, mas o pipeline é criado mesmo assim para que os demais
// endpoints continuem funcionando. cleanup libera os clientes abertos.
func NewPipeline(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (p *service.Pipeline, cleanup func()) {
	var closers []io.Closer
	retry := infra.DefaultRetryConfig().WithAttempts(cfg.Retry.MaxAttempts)

	recognizer, closer := newRecognizer(ctx, cfg.STT, retry, logger)
	if closer != nil {
		closers = append(closers, closer)
	}

	mode, err := service.ParseMode(cfg.Pipeline.Mode)
	if err != nil {
		logger.Error().Err(err).Msg("invalid pipeline mode, using chat")
		mode = service.ModeChat
	}

	p = service.NewPipeline(
		service.NewTranscriber(recognizer, cfg.STT.TempDir, duration(logger, "stt.timeout", cfg.STT.Timeout, 60*time.Second), logger),
		service.NewLLMGateway(service.GatewayConfig{
			LLM:       newLLM(ctx, cfg.LLM, logger),
			ModelName: cfg.LLM.Model,
			Persona:   loadPersona(cfg.LLM, logger),
			Timeout:   duration(logger, "llm.timeout", cfg.LLM.Timeout, 30*time.Second),
			Logger:    logger,
		}),
		service.NewSynthesizer(newSpeaker(cfg.TTS, retry, logger), duration(logger, "tts.timeout", cfg.TTS.Timeout, 30*time.Second), logger),
		mode,
		logger,
	)

	cleanup = func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Warn().Err(err).Msg("closing client failed")
			}
		}
	}
	return p, cleanup
}

func newLLM(ctx context.Context, cfg config.LLMConfig, logger zerolog.Logger) model.LLM {
	if cfg.APIKey == "" {
		logger.Error().Msg("llm unavailable: GEMINI_API_KEY is not set")
		return nil
	}
	m, err := gemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		logger.Error().Err(err).Str("model", cfg.Model).Msg("llm unavailable: failed to create model")
		return nil
	}
	logger.Info().Str("model", cfg.Model).Msg("llm ready")
	return m
}

func loadPersona(cfg config.LLMConfig, logger zerolog.Logger) persona.Persona {
	p, err := persona.Load(cfg.Persona, cfg.PersonaFile)
	if err == nil {
		logger.Info().Str("persona", p.Name).Msg("persona loaded")
		return p
	}
	logger.Error().Err(err).Str("fallback", persona.Default).Msg("persona unavailable")
	p, _ = persona.Builtin(persona.Default)
	return p
}

func newRecognizer(ctx context.Context, cfg config.STTConfig, retry infra.RetryConfig, logger zerolog.Logger) (service.Recognizer, io.Closer) {
	switch cfg.Provider {
	case "google":
		e, err := googlespeech.New(ctx, cfg.Language, retry)
		if err != nil {
			logger.Error().Err(err).Msg("speech recognition unavailable")
			return nil, nil
		}
		logger.Info().Str("engine", e.Name()).Msg("speech recognition ready")
		return e, e
	case "whisper":
		e, err := whisper.NewWithURL(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Language, retry)
		if err != nil {
			logger.Error().Err(err).Msg("speech recognition unavailable")
			return nil, nil
		}
		logger.Info().Str("engine", e.Name()).Str("model", cfg.Model).Msg("speech recognition ready")
		return e, nil
	default:
		logger.Error().Str("provider", cfg.Provider).Msg("speech recognition unavailable: unknown provider")
		return nil, nil
	}
}

func newSpeaker(cfg config.TTSConfig, retry infra.RetryConfig, logger zerolog.Logger) service.Speaker {
	switch cfg.Provider {
	case "gtts":
		var c *gtts.Client
		if cfg.BaseURL != "" {
			c = gtts.NewClientWithURL(cfg.BaseURL, retry)
		} else {
			c = gtts.NewClient(retry)
		}
		logger.Info().Str("engine", c.Name()).Msg("speech synthesis ready")
		return c
	case "elevenlabs":
		c, err := elevenlabs.NewClient(elevenlabs.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			VoiceID: cfg.VoiceID,
			ModelID: cfg.ModelID,
		}, retry)
		if err != nil {
			logger.Error().Err(err).Msg("speech synthesis unavailable")
			return nil
		}
		logger.Info().Str("engine", c.Name()).Msg("speech synthesis ready")
		return c
	default:
		logger.Error().Str("provider", cfg.Provider).Msg("speech synthesis unavailable: unknown provider")
		return nil
	}
}

func duration(logger zerolog.Logger, key, value string, fallback time.Duration) time.Duration {
	d, err := config.Duration(value, fallback)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Dur("fallback", fallback).Msg("invalid duration, using default")
	}
	return d
}
