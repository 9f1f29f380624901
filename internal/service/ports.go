package service

import "context"

// Recognizer transcreve o áudio armazenado em path.
// Implementações: infra/whisper, infra/googlespeech.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
	Name() string
}

// Speaker sintetiza text no idioma lang e devolve o MP3 completo.
// Implementações: infra/gtts, infra/elevenlabs.
type Speaker interface {
	Speak(ctx context.Context, text, lang string) ([]byte, error)
	Name() string
}
