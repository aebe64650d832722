package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	MaxChars     int `yaml:"max_chars"`
	OverlapChars int `yaml:"overlap_chars"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OllamaEmbedderConfig holds configuration for a local Ollama embedder.
type OllamaEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Ollama *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
}

// AnthropicLLMConfig configures the Anthropic messages client.
type AnthropicLLMConfig struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAILLMConfig configures an OpenAI-compatible chat completions client.
type OpenAILLMConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OllamaLLMConfig configures a local Ollama chat client.
type OllamaLLMConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig selects and configures the answer-generating language model.
type LLMConfig struct {
	Type      string              `yaml:"type"`
	Anthropic *AnthropicLLMConfig `yaml:"anthropic,omitempty"`
	OpenAI    *OpenAILLMConfig    `yaml:"openai,omitempty"`
	Ollama    *OllamaLLMConfig    `yaml:"ollama,omitempty"`
}

// RetrieverConfig tunes top-K selection and the relevance/diversity trade-off.
type RetrieverConfig struct {
	TopK   int     `yaml:"top_k"`
	FetchK int     `yaml:"fetch_k"`
	Lambda float64 `yaml:"lambda"`
}

// MemoryConfig bounds the per-role conversation history.
type MemoryConfig struct {
	Capacity int `yaml:"capacity"`
}

// ServerConfig configures the HTTP portal server and its auth layer.
type ServerConfig struct {
	Port            int    `yaml:"port"`
	JWTSecretEnv    string `yaml:"jwt_secret_env"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	UsersDB         string `yaml:"users_db"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DocumentsRoot string          `yaml:"documents_root"`
	StoreRoot     string          `yaml:"store_root"`
	Chunker       ChunkerConfig   `yaml:"chunker"`
	Embedder      EmbedderConfig  `yaml:"embedder"`
	LLM           LLMConfig       `yaml:"llm"`
	Retriever     RetrieverConfig `yaml:"retriever"`
	Memory        MemoryConfig    `yaml:"memory"`
	Server        ServerConfig    `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/finedge/config.yaml.
// If neither exists, it writes defaults to ~/.config/finedge/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "finedge", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		DocumentsRoot: "data/documents",
		StoreRoot:     "data/indexes",
		Embedder:      EmbedderConfig{Type: "tfidf"},
		LLM:           LLMConfig{Type: "ollama"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.DocumentsRoot == "" {
		cfg.DocumentsRoot = "data/documents"
	}
	if cfg.StoreRoot == "" {
		cfg.StoreRoot = "data/indexes"
	}
	if cfg.Chunker.MaxChars == 0 {
		cfg.Chunker.MaxChars = 500
	}
	if cfg.Chunker.OverlapChars == 0 {
		cfg.Chunker.OverlapChars = 50
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "ollama" {
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		if cfg.Embedder.Ollama.BaseURL == "" {
			cfg.Embedder.Ollama.BaseURL = "http://localhost:11434"
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "nomic-embed-text"
		}
		if cfg.Embedder.Ollama.TimeoutSecs == 0 {
			cfg.Embedder.Ollama.TimeoutSecs = 30
		}
	}
	if cfg.LLM.Type == "anthropic" && cfg.LLM.Anthropic != nil {
		if cfg.LLM.Anthropic.APIKeyEnv == "" {
			cfg.LLM.Anthropic.APIKeyEnv = "ANTHROPIC_API_KEY"
		}
		if cfg.LLM.Anthropic.Model == "" {
			cfg.LLM.Anthropic.Model = "claude-3-5-haiku-latest"
		}
		if cfg.LLM.Anthropic.MaxTokens == 0 {
			cfg.LLM.Anthropic.MaxTokens = 1024
		}
		if cfg.LLM.Anthropic.TimeoutSecs == 0 {
			cfg.LLM.Anthropic.TimeoutSecs = 60
		}
	}
	if cfg.LLM.Type == "openai" && cfg.LLM.OpenAI != nil {
		if cfg.LLM.OpenAI.BaseURL == "" {
			cfg.LLM.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.LLM.OpenAI.APIKeyEnv == "" {
			cfg.LLM.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.LLM.OpenAI.Model == "" {
			cfg.LLM.OpenAI.Model = "gpt-4o-mini"
		}
		if cfg.LLM.OpenAI.MaxTokens == 0 {
			cfg.LLM.OpenAI.MaxTokens = 1024
		}
		if cfg.LLM.OpenAI.TimeoutSecs == 0 {
			cfg.LLM.OpenAI.TimeoutSecs = 60
		}
	}
	if cfg.LLM.Type == "ollama" {
		if cfg.LLM.Ollama == nil {
			cfg.LLM.Ollama = &OllamaLLMConfig{}
		}
		if cfg.LLM.Ollama.BaseURL == "" {
			cfg.LLM.Ollama.BaseURL = "http://localhost:11434"
		}
		if cfg.LLM.Ollama.Model == "" {
			cfg.LLM.Ollama.Model = "llama3.2"
		}
		if cfg.LLM.Ollama.TimeoutSecs == 0 {
			cfg.LLM.Ollama.TimeoutSecs = 120
		}
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 8
	}
	if cfg.Retriever.FetchK == 0 {
		cfg.Retriever.FetchK = 3 * cfg.Retriever.TopK
	}
	if cfg.Retriever.Lambda == 0 {
		cfg.Retriever.Lambda = 0.55
	}
	if cfg.Memory.Capacity == 0 {
		cfg.Memory.Capacity = 5
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.JWTSecretEnv == "" {
		cfg.Server.JWTSecretEnv = "FINEDGE_JWT_SECRET"
	}
	if cfg.Server.TokenTTLMinutes == 0 {
		cfg.Server.TokenTTLMinutes = 30
	}
	if cfg.Server.UsersDB == "" {
		cfg.Server.UsersDB = "data/users.db"
	}
}

// EnvStr reads an environment variable with a fallback.
func EnvStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvInt reads an integer environment variable with a fallback.
func EnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
