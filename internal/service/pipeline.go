package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vitormoschetta/go-voice-coach/internal/logging"
)

// Mode seleciona a composição do pipeline de voz.
type Mode string

const (
	// ModeChat passa o texto transcrito pelo LLMGateway antes da síntese.
	ModeChat Mode = "chat"
	// ModeEcho sintetiza de volta o próprio texto transcrito, sem modelo.
	ModeEcho Mode = "echo"
)

// ParseMode valida o modo configurado.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeChat:
		return ModeChat, nil
	case ModeEcho:
		return ModeEcho, nil
	default:
		return "", fmt.Errorf("unknown pipeline mode %q (want chat or echo)", s)
	}
}

// UnintelligibleReply substitui a transcrição quando ela falha ou vem vazia.
const UnintelligibleReply = "I could not understand what you said."

// Arquivos sugeridos para a resposta de voz
const (
	ResponseFilename = "response.mp3"
	EchoFilename     = "echo.mp3"
)

// Pipeline compõe Transcriber, LLMGateway e Synthesizer. É criado uma vez no
// startup e usado concorrentemente por todas as requisições.
type Pipeline struct {
	transcriber *Transcriber
	gateway     *LLMGateway
	synthesizer *Synthesizer
	filter      *CrisisFilter
	mode        Mode
	logger      zerolog.Logger
}

func NewPipeline(
	transcriber *Transcriber,
	gateway *LLMGateway,
	synthesizer *Synthesizer,
	mode Mode,
	logger zerolog.Logger,
) *Pipeline {
	if mode == "" {
		mode = ModeChat
	}
	return &Pipeline{
		transcriber: transcriber,
		gateway:     gateway,
		synthesizer: synthesizer,
		filter:      NewCrisisFilter(),
		mode:        mode,
		logger:      logger.With().Str("component", "pipeline").Logger(),
	}
}

func (p *Pipeline) Mode() Mode {
	return p.mode
}

// Status resume a disponibilidade de cada motor externo.
type Status struct {
	Mode        Mode   `json:"mode"`
	Persona     string `json:"persona"`
	Transcriber bool   `json:"transcriber"`
	LLM         bool   `json:"llm"`
	Synthesizer bool   `json:"synthesizer"`
}

func (p *Pipeline) Status() Status {
	return Status{
		Mode:        p.mode,
		Persona:     p.gateway.Persona(),
		Transcriber: p.transcriber.Available(),
		LLM:         p.gateway.Available(),
		Synthesizer: p.synthesizer.Available(),
	}
}

// Transcribe é a operação isolada de speech-to-text.
func (p *Pipeline) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	return p.transcriber.Transcribe(ctx, audio, filename)
}

// Synthesize é a operação isolada de text-to-speech.
func (p *Pipeline) Synthesize(ctx context.Context, text, lang string) (*AudioBlob, error) {
	return p.synthesizer.Synthesize(ctx, text, lang)
}

// Chat é o pipeline de texto: filtro de crise e modelo, sem áudio.
// Só falha para mensagem vazia.
func (p *Pipeline) Chat(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	p.logger.Info().Str("message", logging.Preview(message)).Msg("text chat received")

	reply := p.gateway.Respond(ctx, message)

	p.logger.Info().Str("reply", logging.Preview(reply)).Msg("text chat replied")
	return reply, nil
}

// Voice é o pipeline áudio → áudio. Falhas de transcrição e do modelo viram
// texto substituto; só a síntese interrompe a requisição.
func (p *Pipeline) Voice(ctx context.Context, audio io.Reader, filename string) (*AudioBlob, error) {
	if !p.transcriber.Available() {
		return nil, ErrTranscriberUnavailable
	}

	logger := p.logger.With().
		Str("interaction_id", uuid.NewString()).
		Str("mode", string(p.mode)).
		Logger()

	transcript, err := p.transcriber.Transcribe(ctx, audio, filename)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("transcription failed, using placeholder")
		transcript = UnintelligibleReply
	case transcript == "":
		logger.Info().Msg("empty transcription, using placeholder")
		transcript = UnintelligibleReply
	default:
		logger.Info().Str("transcript", logging.Preview(transcript)).Msg("transcribed voice message")
	}

	reply, outName := p.reply(ctx, transcript)

	// Idioma fixo em inglês, independente do idioma do áudio de entrada.
	blob, err := p.synthesizer.Synthesize(ctx, reply, DefaultLanguage)
	if err != nil {
		logger.Error().Err(err).Msg("voice pipeline aborted at synthesis")
		return nil, err
	}
	blob.Filename = outName

	logger.Info().Int("bytes", len(blob.Data)).Msg("voice reply ready")
	return blob, nil
}

func (p *Pipeline) reply(ctx context.Context, transcript string) (string, string) {
	if p.mode == ModeEcho {
		// O filtro de crise vale também no modo eco.
		if v := p.filter.Classify(transcript); v.Intercepted {
			return v.Response, EchoFilename
		}
		return transcript, EchoFilename
	}
	return p.gateway.Respond(ctx, transcript), ResponseFilename
}
