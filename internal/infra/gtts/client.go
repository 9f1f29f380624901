// Package gtts sintetiza fala com o endpoint público de TTS do Google
// Translate. Não exige chave de API.
package gtts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/vitormoschetta/go-voice-coach/internal/infra"
)

const (
	defaultBaseURL = "https://translate.google.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	// MaxChunkRunes é o limite de caracteres aceito por requisição.
	MaxChunkRunes = 100
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      infra.RetryConfig
}

func NewClient(retry infra.RetryConfig) *Client {
	return NewClientWithURL(defaultBaseURL, retry)
}

// NewClientWithURL cria um cliente com URL base customizada (para testes)
func NewClientWithURL(baseURL string, retry infra.RetryConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      retry,
	}
}

func (c *Client) Name() string {
	return "gtts"
}

// Speak divide o texto em trechos e concatena o MP3 de cada um.
func (c *Client) Speak(ctx context.Context, text, lang string) ([]byte, error) {
	chunks := SplitText(text, MaxChunkRunes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("gtts: nothing to speak")
	}

	var out bytes.Buffer
	for i, chunk := range chunks {
		var audio []byte
		err := infra.WithRetry(ctx, c.retry, func() error {
			var err error
			audio, err = c.fetch(ctx, chunk, lang, i, len(chunks))
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		out.Write(audio)
	}
	return out.Bytes(), nil
}

func (c *Client) fetch(ctx context.Context, chunk, lang string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", chunk)
	q.Set("tl", lang)
	q.Set("client", "tw-ob")
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/translate_tts?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &infra.StatusError{Service: "gtts", Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("gtts returned empty audio")
	}
	return data, nil
}

// SplitText quebra text em trechos de no máximo limit runas, preferindo
// cortar depois de pontuação e depois em espaços. Palavras maiores que o
// limite são cortadas no meio.
func SplitText(text string, limit int) []string {
	var chunks []string
	rest := []rune(strings.TrimSpace(text))

	for len(rest) > 0 {
		if len(rest) <= limit {
			chunks = appendChunk(chunks, rest)
			break
		}

		cut := lastIndexFunc(rest[:limit+1], isSentenceEnd)
		if cut <= 0 {
			cut = lastIndexFunc(rest[:limit+1], unicode.IsSpace)
		}
		if cut <= 0 {
			cut = limit
		} else if !unicode.IsSpace(rest[cut]) {
			cut++
		}
		if cut > limit {
			cut = limit
		}

		chunks = appendChunk(chunks, rest[:cut])
		rest = []rune(strings.TrimLeftFunc(string(rest[cut:]), unicode.IsSpace))
	}
	return chunks
}

func appendChunk(chunks []string, r []rune) []string {
	if s := strings.TrimSpace(string(r)); s != "" {
		return append(chunks, s)
	}
	return chunks
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', ';', ':', ',', '\n':
		return true
	}
	return false
}

func lastIndexFunc(r []rune, f func(rune) bool) int {
	for i := len(r) - 1; i >= 0; i-- {
		if f(r[i]) {
			return i
		}
	}
	return -1
}
