package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vitormoschetta/go-voice-coach/internal/config"
	"github.com/vitormoschetta/go-voice-coach/internal/ratelimit"
	"github.com/vitormoschetta/go-voice-coach/internal/service"
)

// Server representa o servidor HTTP com todas as dependências
type Server struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Pipeline *service.Pipeline
	Limiter  ratelimit.Store
	Router   chi.Router

	cleanup []func()
}

// Routes agrupa os handlers registrados por SetupRouter
type Routes struct {
	Root       http.HandlerFunc
	Health     http.HandlerFunc
	Transcribe http.HandlerFunc
	Synthesize http.HandlerFunc
	VoiceChat  http.HandlerFunc
	Chat       http.HandlerFunc
}

// NewServer cria uma nova instância do servidor. Falhas de motores externos
// não impedem o startup; só deixam o componente indisponível.
func NewServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	pipeline, closePipeline := NewPipeline(ctx, cfg, logger)
	s := &Server{
		Config:   cfg,
		Logger:   logger,
		Pipeline: pipeline,
		cleanup:  []func(){closePipeline},
	}

	if cfg.RateLimit.Enabled {
		s.Limiter = s.newLimiter(ctx)
	}

	status := pipeline.Status()
	logger.Info().
		Str("mode", string(status.Mode)).
		Str("persona", status.Persona).
		Bool("transcriber", status.Transcriber).
		Bool("llm", status.LLM).
		Bool("synthesizer", status.Synthesizer).
		Msg("pipeline initialized")

	return s, nil
}

func (s *Server) newLimiter(ctx context.Context) ratelimit.Store {
	rl := s.Config.RateLimit
	window := duration(s.Logger, "ratelimit.window", rl.Window, time.Minute)

	if rl.RedisAddr != "" {
		client, err := ratelimit.NewRedisClient(ctx, rl.RedisAddr)
		if err == nil {
			s.cleanup = append(s.cleanup, func() { client.Close() })
			s.Logger.Info().Str("store", "redis").Int("requests", rl.Requests).Dur("window", window).Msg("rate limiting enabled")
			return ratelimit.NewRedisStore(client, rl.Requests, window)
		}
		s.Logger.Error().Err(err).Msg("redis unavailable, falling back to in-memory rate limiting")
	}

	s.Logger.Info().Str("store", "memory").Int("requests", rl.Requests).Dur("window", window).Msg("rate limiting enabled")
	return ratelimit.NewMemoryStore(rl.Requests, window)
}

// SetupRouter configura as rotas e middlewares do Chi
func (s *Server) SetupRouter(routes Routes) {
	r := chi.NewRouter()

	accessLog := s.Logger.With().Str("component", "http").Logger()

	// Middlewares
	r.Use(middleware.RequestID)
	if s.Config.Server.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestLogger(&accessLogFormatter{logger: accessLog}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(duration(s.Logger, "server.request_timeout", s.Config.Server.RequestTimeout, 130*time.Second)))

	// Rotas
	r.Get("/", routes.Root)
	r.Get("/health", routes.Health)
	r.Post("/stt", routes.Transcribe)
	r.Post("/tts", routes.Synthesize)

	// Rotas que chamam o modelo
	r.Group(func(r chi.Router) {
		if s.Limiter != nil {
			r.Use(ratelimit.Middleware(s.Limiter, s.Logger))
		}
		r.Post("/voice-chat", routes.VoiceChat)
		r.Post("/echo", routes.VoiceChat)
		r.Post("/chat", routes.Chat)
		r.Post("/chat/", routes.Chat)
		r.Handle("/mcp", NewMCPHandler(s.Pipeline))
	})

	s.Router = r
}

// Start inicia o servidor HTTP e bloqueia até ctx ser cancelado, fazendo
// graceful shutdown em seguida.
func (s *Server) Start(ctx context.Context) error {
	if s.Router == nil {
		return errors.New("router not configured")
	}
	defer s.Close()

	httpServer := &http.Server{
		Addr:         s.Config.Server.Addr,
		Handler:      s.Router,
		ReadTimeout:  duration(s.Logger, "server.read_timeout", s.Config.Server.ReadTimeout, 30*time.Second),
		WriteTimeout: duration(s.Logger, "server.write_timeout", s.Config.Server.WriteTimeout, 140*time.Second),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info().
			Str("addr", httpServer.Addr).
			Strs("endpoints", []string{"GET /", "GET /health", "POST /stt", "POST /tts", "POST /voice-chat", "POST /echo", "POST /chat", "/mcp"}).
			Msg("http server started")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Aguardar sinal de interrupção
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	s.Logger.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.Logger.Info().Msg("server stopped gracefully")
	return nil
}

// Close libera clientes externos abertos no startup.
func (s *Server) Close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
	s.cleanup = nil
}
