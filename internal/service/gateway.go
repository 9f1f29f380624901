package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/vitormoschetta/go-voice-coach/internal/logging"
	"github.com/vitormoschetta/go-voice-coach/internal/persona"
)

// Respostas fixas do gateway
const (
	EmptyInputReply = "I'm sorry, I didn't catch that. Could you please repeat yourself?"
	ApologyReply    = "I'm sorry, I'm having trouble connecting to my brain right now. Please try again in a moment."
)

var errEmptyModelReply = errors.New("model returned no text")

// GatewayConfig contém as dependências do LLMGateway
type GatewayConfig struct {
	// LLM pode ser nil quando o cliente falhou no startup; o gateway então
	// responde com ApologyReply.
	LLM       model.LLM
	ModelName string
	Persona   persona.Persona
	Filter    *CrisisFilter
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// LLMGateway envolve a chamada ao modelo com persona fixa, filtro de crise
// e degradação controlada.
type LLMGateway struct {
	llm       model.LLM
	modelName string
	persona   persona.Persona
	filter    *CrisisFilter
	timeout   time.Duration
	logger    zerolog.Logger
}

func NewLLMGateway(cfg GatewayConfig) *LLMGateway {
	filter := cfg.Filter
	if filter == nil {
		filter = NewCrisisFilter()
	}
	return &LLMGateway{
		llm:       cfg.LLM,
		modelName: cfg.ModelName,
		persona:   cfg.Persona,
		filter:    filter,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger.With().Str("component", "llm_gateway").Logger(),
	}
}

// Available reporta se o cliente do modelo foi inicializado.
func (g *LLMGateway) Available() bool {
	return g.llm != nil
}

// Persona devolve o nome da persona ativa.
func (g *LLMGateway) Persona() string {
	return g.persona.Name
}

// Respond nunca falha: devolve a resposta do modelo, a resposta de crise
// ou uma das respostas fixas.
func (g *LLMGateway) Respond(ctx context.Context, message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		g.logger.Warn().Msg("received empty message")
		return EmptyInputReply
	}

	if v := g.filter.Classify(message); v.Intercepted {
		g.logger.Warn().Int("chars", len(message)).Msg("crisis language detected, model bypassed")
		return v.Response
	}

	if g.llm == nil {
		g.logger.Error().Msg("language model unavailable")
		return ApologyReply
	}

	start := time.Now()
	reply, err := g.generate(ctx, message)
	if err != nil {
		g.logger.Error().
			Err(err).
			Str("model", g.modelName).
			Int("chars", len(message)).
			Dur("elapsed", time.Since(start)).
			Msg("llm request failed")
		return ApologyReply
	}

	g.logger.Info().
		Str("persona", g.persona.Name).
		Dur("elapsed", time.Since(start)).
		Str("reply", logging.Preview(reply)).
		Msg("received model reply")
	return reply
}

func (g *LLMGateway) generate(ctx context.Context, message string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	// A instrução de sistema segue em um segmento próprio, separado da mensagem do usuário.
	req := &model.LLMRequest{
		Model: g.modelName,
		Contents: []*genai.Content{
			{
				Role:  "user",
				Parts: []*genai.Part{{Text: message}},
			},
		},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: g.persona.Instruction}},
			},
		},
	}

	var responseText strings.Builder
	for resp, err := range g.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", fmt.Errorf("generating content: %w", err)
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil && part.Text != "" {
				responseText.WriteString(part.Text)
			}
		}
	}

	reply := responseText.String()
	if strings.TrimSpace(reply) == "" {
		return "", errEmptyModelReply
	}
	return reply, nil
}
