// Package whisper implementa o reconhecimento de fala pela API de
// transcrição da OpenAI.
package whisper

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/vitormoschetta/go-voice-coach/internal/infra"
)

type Engine struct {
	client   *openai.Client
	model    string
	language string
	retry    infra.RetryConfig
}

// New cria o motor apontando para a API pública da OpenAI.
func New(apiKey, model, language string, retry infra.RetryConfig) (*Engine, error) {
	return NewWithURL(apiKey, "", model, language, retry)
}

// NewWithURL permite trocar a URL base (servidores compatíveis e testes).
// baseURL deve incluir o prefixo de versão, por exemplo http://host/v1.
func NewWithURL(apiKey, baseURL, model, language string, retry infra.RetryConfig) (*Engine, error) {
	if apiKey == "" {
		return nil, errors.New("whisper: api key is required")
	}
	if model == "" {
		model = openai.Whisper1
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Engine{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		language: language,
		retry:    retry,
	}, nil
}

func (e *Engine) Name() string {
	return "whisper"
}

// Recognize envia o arquivo em path e devolve o texto transcrito.
func (e *Engine) Recognize(ctx context.Context, path string) (string, error) {
	req := openai.AudioRequest{
		Model:    e.model,
		FilePath: path,
		Language: e.language,
	}

	var text string
	err := infra.WithRetry(ctx, e.retry, func() error {
		resp, err := e.client.CreateTranscription(ctx, req)
		if err != nil {
			return classify(err)
		}
		text = resp.Text
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return fmt.Errorf("creating transcription: %w", &infra.StatusError{
			Service: "openai",
			Code:    apiErr.HTTPStatusCode,
			Body:    apiErr.Message,
		})
	}
	return fmt.Errorf("creating transcription: %w", err)
}
