package model

// ChatRequest representa a requisição para o endpoint de chat
type ChatRequest struct {
	Message string `json:"message"`
}

// TextResponse é a resposta de texto de /stt e /chat
type TextResponse struct {
	Text string `json:"text"`
}

// SynthesizeRequest representa a requisição para o endpoint de TTS
type SynthesizeRequest struct {
	Text     string `json:"text"`
	LangCode string `json:"lang_code,omitempty"`
}

// ErrorResponse é o corpo de todas as respostas de erro
type ErrorResponse struct {
	Detail string `json:"detail"`
}
