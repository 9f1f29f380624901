package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config agrega toda a configuração do serviço
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	LLM       LLMConfig       `yaml:"llm"`
	STT       STTConfig       `yaml:"stt"`
	TTS       TTSConfig       `yaml:"tts"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Retry     RetryConfig     `yaml:"retry"`

	// Warnings são problemas não fatais do carregamento, para o chamador logar.
	Warnings []string `yaml:"-"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	ReadTimeout    string `yaml:"read_timeout"`
	WriteTimeout   string `yaml:"write_timeout"`
	RequestTimeout string `yaml:"request_timeout"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	// TrustProxy habilita X-Forwarded-For/X-Real-IP como IP do cliente.
	// Só deve ser ligado atrás de um proxy que sobrescreve esses cabeçalhos.
	TrustProxy bool `yaml:"trust_proxy"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type LLMConfig struct {
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	Persona     string `yaml:"persona"`
	PersonaFile string `yaml:"persona_file"`
	Timeout     string `yaml:"timeout"`
}

type STTConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	Timeout  string `yaml:"timeout"`
	TempDir  string `yaml:"temp_dir"`
}

type TTSConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	VoiceID  string `yaml:"voice_id"`
	ModelID  string `yaml:"model_id"`
	Timeout  string `yaml:"timeout"`
}

type PipelineConfig struct {
	Mode string `yaml:"mode"`
}

type RateLimitConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Requests  int    `yaml:"requests"`
	Window    string `yaml:"window"`
	RedisAddr string `yaml:"redis_addr"`
}

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// Load lê o arquivo .env (se existir) e depois o arquivo YAML em path.
// Um arquivo de configuração ausente não é fatal: valem os defaults e as variáveis de ambiente.
func Load(path string) (*Config, error) {
	var cfg Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf(".env file could not be loaded: %v", err))
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.applyEnv()
	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	if c.STT.APIKey == "" && c.STT.Provider != "google" {
		c.STT.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.TTS.APIKey == "" && c.TTS.Provider == "elevenlabs" {
		c.TTS.APIKey = os.Getenv("ELEVENLABS_API_KEY")
	}
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "30s"
	}
	// O prazo da requisição cobre stt (60s) + llm (30s) + tts (30s) da
	// voz com folga; o write timeout fica acima dele.
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "140s"
	}
	if c.Server.RequestTimeout == "" {
		c.Server.RequestTimeout = "130s"
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = 25 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.5-flash"
	}
	if c.LLM.Persona == "" {
		c.LLM.Persona = "coach"
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = "30s"
	}
	if c.STT.Provider == "" {
		c.STT.Provider = "whisper"
	}
	if c.STT.Model == "" {
		c.STT.Model = "whisper-1"
	}
	if c.STT.Timeout == "" {
		c.STT.Timeout = "60s"
	}
	if c.TTS.Provider == "" {
		c.TTS.Provider = "gtts"
	}
	if c.TTS.Timeout == "" {
		c.TTS.Timeout = "30s"
	}
	if c.Pipeline.Mode == "" {
		c.Pipeline.Mode = "chat"
	}
	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = 30
	}
	if c.RateLimit.Window == "" {
		c.RateLimit.Window = "1m"
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 1
	}
}

// Duration converte value com time.ParseDuration e devolve fallback quando
// o valor está vazio, é inválido ou não é positivo.
func Duration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	if d <= 0 {
		return fallback, fmt.Errorf("duration %q must be positive", value)
	}
	return d, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
