package service

import "errors"

// Erros de entrada do cliente (400)
var (
	ErrEmptyMessage = errors.New("no message provided")
	ErrEmptyText    = errors.New("text is empty")
	ErrMissingAudio = errors.New("audio upload is missing")
)

// Erros de configuração: o componente não foi inicializado no startup (500)
var (
	ErrTranscriberUnavailable = errors.New("speech recognition engine is not available")
	ErrSynthesizerUnavailable = errors.New("speech synthesis engine is not available")
)

// IsClientError reporta se err deve ser devolvido como erro do cliente.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrEmptyText) ||
		errors.Is(err, ErrMissingAudio)
}
