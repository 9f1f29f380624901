// Package ratelimit limita requisições por IP nas rotas que chamam motores
// externos pagos.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store decide se mais uma requisição de key cabe na janela atual.
type Store interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryStore é um token bucket por IP, local ao processo.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	tokens    int
	lastReset time.Time
}

// NewMemoryStore aceita rate requisições a cada window.
func NewMemoryStore(rate int, window time.Duration) *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*bucket),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
}

func (s *MemoryStore) Allow(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	b, ok := s.buckets[key]
	if !ok {
		s.buckets[key] = &bucket{tokens: s.rate - 1, lastReset: now}
		s.sweep(now)
		return s.rate > 0, nil
	}

	if now.Sub(b.lastReset) >= s.window {
		b.tokens = s.rate
		b.lastReset = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

// sweep descarta buckets de janelas já vencidas. Roda ao criar buckets novos
// para o mapa não crescer sem limite.
func (s *MemoryStore) sweep(now time.Time) {
	if len(s.buckets) < 1024 {
		return
	}
	for k, b := range s.buckets {
		if now.Sub(b.lastReset) >= s.window {
			delete(s.buckets, k)
		}
	}
}

// RedisStore conta requisições numa janela fixa compartilhada entre réplicas.
type RedisStore struct {
	client *redis.Client
	rate   int
	window time.Duration
	prefix string
}

func NewRedisStore(client *redis.Client, rate int, window time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		rate:   rate,
		window: window,
		prefix: "voicecoach:ratelimit:",
	}
}

// NewRedisClient conecta e verifica o servidor em addr.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) Allow(ctx context.Context, key string) (bool, error) {
	slot := time.Now().UnixNano() / int64(s.window)
	k := fmt.Sprintf("%s%s:%d", s.prefix, key, slot)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= int64(s.rate), nil
}

// Middleware responde 429 quando o Store recusa. Falhas do Store deixam a
// requisição passar.
func Middleware(store Store, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			allowed, err := store.Allow(r.Context(), ip)
			if err != nil {
				logger.Warn().Err(err).Str("ip", ip).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				logger.Info().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"detail":"Rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP devolve RemoteAddr sem a porta. Cabeçalhos de proxy são ignorados
// aqui; quando o servidor confia no proxy, middleware.RealIP já reescreveu
// RemoteAddr antes deste ponto.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
