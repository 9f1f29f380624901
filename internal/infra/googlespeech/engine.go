// Package googlespeech implementa o reconhecimento de fala com o Google
// Cloud Speech-to-Text. A autenticação usa Application Default Credentials.
package googlespeech

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vitormoschetta/go-voice-coach/internal/infra"
)

const defaultLanguage = "en-US"

type Engine struct {
	client   *speech.Client
	language string
	retry    infra.RetryConfig
}

func New(ctx context.Context, language string, retry infra.RetryConfig) (*Engine, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	if language == "" {
		language = defaultLanguage
	}
	return &Engine{client: client, language: language, retry: retry}, nil
}

func (e *Engine) Name() string {
	return "google-speech"
}

func (e *Engine) Close() error {
	return e.client.Close()
}

// Recognize envia o arquivo inteiro numa chamada síncrona. Serve para
// gravações curtas, como as mensagens de voz do frontend.
func (e *Engine) Recognize(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading audio: %w", err)
	}

	req := &speechpb.RecognizeRequest{
		Config: recognitionConfig(filepath.Ext(path), e.language),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	}

	var resp *speechpb.RecognizeResponse
	err = infra.WithRetry(ctx, e.retry, func() error {
		var callErr error
		resp, callErr = e.client.Recognize(ctx, req)
		return classify(callErr)
	})
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	return joinTranscripts(resp.GetResults()), nil
}

// classify converte o código gRPC em infra.StatusError para que erros
// permanentes (argumento inválido, permissão, encoding não suportado) não
// sejam repetidos.
func classify(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	code := httpStatus(st.Code())
	if code == 0 {
		return err
	}
	return &infra.StatusError{
		Service: "google-speech",
		Code:    code,
		Body:    st.Message(),
	}
}

func httpStatus(c codes.Code) int {
	switch c {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Internal, codes.Unknown, codes.DataLoss:
		return http.StatusInternalServerError
	default:
		// Canceled e DeadlineExceeded: WithRetry para quando ctx termina.
		return 0
	}
}

func recognitionConfig(ext, language string) *speechpb.RecognitionConfig {
	cfg := &speechpb.RecognitionConfig{
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
	}
	switch strings.ToLower(ext) {
	case ".webm":
		cfg.Encoding = speechpb.RecognitionConfig_WEBM_OPUS
		cfg.SampleRateHertz = 48000
	case ".ogg", ".oga", ".opus":
		cfg.Encoding = speechpb.RecognitionConfig_OGG_OPUS
		cfg.SampleRateHertz = 48000
	case ".flac":
		cfg.Encoding = speechpb.RecognitionConfig_FLAC
	default:
		// WAV e afins: o serviço lê o cabeçalho.
		cfg.Encoding = speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
	return cfg
}

func joinTranscripts(results []*speechpb.SpeechRecognitionResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
