// Package elevenlabs sintetiza fala pela API REST da ElevenLabs.
package elevenlabs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/vitormoschetta/go-voice-coach/internal/infra"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	DefaultModelID = "eleven_turbo_v2_5"
	outputFormat   = "mp3_44100_128"
)

type Config struct {
	APIKey  string
	BaseURL string
	VoiceID string
	ModelID string

	Stability       float64
	SimilarityBoost float64
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      infra.RetryConfig
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	LanguageCode  string        `json:"language_code,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type errorResponse struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

func NewClient(cfg Config, retry infra.RetryConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("elevenlabs: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.VoiceID == "" {
		cfg.VoiceID = DefaultVoiceID
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.Stability == 0 {
		cfg.Stability = 0.5
	}
	if cfg.SimilarityBoost == 0 {
		cfg.SimilarityBoost = 0.75
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retry:      retry,
	}, nil
}

func (c *Client) Name() string {
	return "elevenlabs"
}

// Speak devolve o MP3 gerado para text.
func (c *Client) Speak(ctx context.Context, text, lang string) ([]byte, error) {
	body, err := sonic.Marshal(speechRequest{
		Text:         text,
		ModelID:      c.cfg.ModelID,
		LanguageCode: lang,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.VoiceID), outputFormat)

	var audio []byte
	err = infra.WithRetry(ctx, c.retry, func() error {
		var err error
		audio, err = c.post(ctx, endpoint, body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(data))
		var er errorResponse
		if sonic.Unmarshal(data, &er) == nil && er.Detail.Message != "" {
			msg = er.Detail.Message
		}
		return nil, &infra.StatusError{Service: "elevenlabs", Code: resp.StatusCode, Body: msg}
	}
	return data, nil
}
