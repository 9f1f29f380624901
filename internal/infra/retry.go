// Package infra reúne os clientes dos motores externos de voz.
package infra

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RetryConfig controla as novas tentativas das chamadas aos motores externos.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig faz uma única tentativa. Backoff só vale quando
// MaxAttempts é aumentado pela configuração.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  1,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     3 * time.Second,
		Multiplier:   2.0,
	}
}

// WithAttempts devolve uma cópia com n tentativas (mínimo 1).
func (c RetryConfig) WithAttempts(n int) RetryConfig {
	if n < 1 {
		n = 1
	}
	c.MaxAttempts = n
	return c
}

// StatusError é uma resposta HTTP não-2xx de um motor externo.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.Code)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Code, e.Body)
}

// Retryable indica se repetir a chamada pode dar outro resultado.
func (e *StatusError) Retryable() bool {
	return IsRetryableHTTPStatus(e.Code)
}

// WithRetry executa fn com backoff exponencial. Erros de contexto e
// StatusError não-retentáveis encerram imediatamente.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return lastErr
}

// IsRetryableHTTPStatus é verdadeiro para 429 e 5xx, exceto 501.
func IsRetryableHTTPStatus(statusCode int) bool {
	if statusCode == http.StatusNotImplemented {
		return false
	}
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}
