package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/vitormoschetta/go-voice-coach/internal/model"
	"github.com/vitormoschetta/go-voice-coach/internal/server"
	"github.com/vitormoschetta/go-voice-coach/internal/service"
)

const (
	audioField   = "audio_file"
	maxJSONBytes = 1 << 20
)

// Handler contém as dependências necessárias para os handlers HTTP
type Handler struct {
	pipeline  *service.Pipeline
	maxUpload int64
	logger    zerolog.Logger
}

// NewHandler cria uma nova instância do Handler
func NewHandler(srv *server.Server) *Handler {
	maxUpload := int64(25 << 20)
	if srv.Config != nil && srv.Config.Server.MaxUploadBytes > 0 {
		maxUpload = srv.Config.Server.MaxUploadBytes
	}
	return &Handler{
		pipeline:  srv.Pipeline,
		maxUpload: maxUpload,
		logger:    srv.Logger.With().Str("component", "handler").Logger(),
	}
}

// Routes devolve os handlers no formato esperado por server.SetupRouter
func (h *Handler) Routes() server.Routes {
	return server.Routes{
		Root:       h.HandleRoot,
		Health:     h.HandleHealth,
		Transcribe: h.HandleTranscribe,
		Synthesize: h.HandleSynthesize,
		VoiceChat:  h.HandleVoiceChat,
		Chat:       h.HandleChat,
	}
}

// HandleRoot retorna informações sobre o serviço
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	mode := string(h.pipeline.Mode())
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "Voice Coach API",
		"mode":    mode,
		"endpoints": map[string]any{
			"stt":        map[string]string{"method": "POST", "description": "Transcribe an uploaded audio file (multipart field audio_file)"},
			"tts":        map[string]string{"method": "POST", "description": "Synthesize speech from {text, lang_code}"},
			"voice-chat": map[string]string{"method": "POST", "mode": mode, "description": "Voice in, spoken reply out"},
			"echo": map[string]string{
				"method":      "POST",
				"mode":        mode,
				"description": "Alias of /voice-chat for the browser client. It follows the configured mode: it only echoes the transcript when mode is echo",
			},
			"chat":   map[string]string{"method": "POST", "description": "Text chat with {message}"},
			"health": map[string]string{"method": "GET", "description": "Engine availability"},
			"mcp":    map[string]string{"method": "POST", "description": "MCP streamable endpoint with the chat tool"},
		},
	})
}

type healthResponse struct {
	Status  string         `json:"status"`
	Engines service.Status `json:"engines"`
}

// HandleHealth retorna o status de saúde do servidor e dos motores
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Engines: h.pipeline.Status()})
}

// HandleTranscribe converte o áudio enviado em texto
func (h *Handler) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	file, filename, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	text, err := h.pipeline.Transcribe(r.Context(), file, filename)
	if err != nil {
		if errors.Is(err, service.ErrTranscriberUnavailable) {
			writeError(w, http.StatusInternalServerError, "Speech-to-text model not available")
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Transcription failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, model.TextResponse{Text: text})
}

// HandleSynthesize converte texto em áudio MP3
func (h *Handler) HandleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req model.SynthesizeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid tts request")
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	blob, err := h.pipeline.Synthesize(r.Context(), req.Text, req.LangCode)
	switch {
	case errors.Is(err, service.ErrEmptyText):
		writeError(w, http.StatusBadRequest, "Text is empty.")
		return
	case errors.Is(err, service.ErrSynthesizerUnavailable):
		writeError(w, http.StatusInternalServerError, "Text-to-speech engine not available")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Speech synthesis failed: %v", err))
		return
	}

	writeAudio(w, blob)
}

// HandleVoiceChat executa o pipeline de voz completo
func (h *Handler) HandleVoiceChat(w http.ResponseWriter, r *http.Request) {
	file, filename, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	blob, err := h.pipeline.Voice(r.Context(), file, filename)
	switch {
	case errors.Is(err, service.ErrTranscriberUnavailable):
		writeError(w, http.StatusInternalServerError, "Speech-to-text model not available")
		return
	case errors.Is(err, service.ErrSynthesizerUnavailable):
		writeError(w, http.StatusInternalServerError, "Text-to-speech engine not available")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Speech synthesis failed: %v", err))
		return
	}

	writeAudio(w, blob)
}

// HandleChat processa mensagens de texto
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid chat request")
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	reply, err := h.pipeline.Chat(r.Context(), req.Message)
	if err != nil {
		// Chat só falha para mensagem vazia
		writeError(w, http.StatusBadRequest, "No message provided")
		return
	}

	writeJSON(w, http.StatusOK, model.TextResponse{Text: reply})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile(audioField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn().Int64("limit", tooLarge.Limit).Msg("upload too large")
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Audio file exceeds %d bytes", tooLarge.Limit))
			return nil, "", false
		}
		h.logger.Warn().Err(err).Msg("missing audio upload")
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return nil, "", false
	}

	h.logger.Debug().
		Str("filename", header.Filename).
		Int64("bytes", header.Size).
		Str("content_type", header.Header.Get("Content-Type")).
		Msg("audio upload received")
	return file, header.Filename, true
}

func decodeJSON(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBytes))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return sonic.Unmarshal(data, v)
}

func writeAudio(w http.ResponseWriter, blob *service.AudioBlob) {
	w.Header().Set("Content-Type", blob.MimeType)
	w.Header().Set("Content-Disposition", "attachment; filename="+blob.Filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(blob.Data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, `{"detail":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, model.ErrorResponse{Detail: detail})
}
