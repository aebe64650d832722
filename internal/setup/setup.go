// Package setup assembles the chat pipeline from configuration. Both the
// portal server and the terminal client share this wiring.
package setup

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"finedge/internal/chunker"
	"finedge/internal/config"
	"finedge/internal/domain"
	ollamaembed "finedge/internal/embedding/ollama"
	openaiembed "finedge/internal/embedding/openai"
	"finedge/internal/embedding/tfidf"
	"finedge/internal/ingest"
	"finedge/internal/llm/anthropic"
	ollamallm "finedge/internal/llm/ollama"
	openaillm "finedge/internal/llm/openai"
	"finedge/internal/memory"
	"finedge/internal/retriever"
	"finedge/internal/service"
	"finedge/internal/vectorstore/file"
)

// Logging installs the default slog handler: JSON in production, text otherwise.
func Logging() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if os.Getenv("ENVIRONMENT") == "production" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// EmbedderFactory returns a constructor for the configured embedder type.
// TF-IDF embedders carry per-role state, so the constructor is called once
// per role during indexing; remote clients are stateless and shared.
func EmbedderFactory(cfg *config.AppConfig) (func() domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return func() domain.Embedder { return tfidf.NewEmbedder() }, nil
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openaiembed.NewClient(openaiembed.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init: %w", err)
		}
		return func() domain.Embedder { return client }, nil
	case "ollama":
		if cfg.Embedder.Ollama == nil {
			return nil, fmt.Errorf("ollama embedder config missing")
		}
		client := ollamaembed.NewClient(ollamaembed.Config{
			BaseURL: cfg.Embedder.Ollama.BaseURL,
			Model:   cfg.Embedder.Ollama.Model,
			Timeout: time.Duration(cfg.Embedder.Ollama.TimeoutSecs) * time.Second,
		})
		return func() domain.Embedder { return client }, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

// Generator builds the configured answer-generating client.
func Generator(cfg *config.AppConfig) (domain.Generator, error) {
	switch cfg.LLM.Type {
	case "anthropic":
		if cfg.LLM.Anthropic == nil {
			return nil, fmt.Errorf("anthropic llm config missing")
		}
		key := os.Getenv(cfg.LLM.Anthropic.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("environment variable %s is not set", cfg.LLM.Anthropic.APIKeyEnv)
		}
		return anthropic.NewClient(anthropic.Config{
			APIKey:    key,
			Model:     cfg.LLM.Anthropic.Model,
			MaxTokens: cfg.LLM.Anthropic.MaxTokens,
			Timeout:   time.Duration(cfg.LLM.Anthropic.TimeoutSecs) * time.Second,
		}), nil
	case "openai":
		if cfg.LLM.OpenAI == nil {
			return nil, fmt.Errorf("openai llm config missing")
		}
		key := os.Getenv(cfg.LLM.OpenAI.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("environment variable %s is not set", cfg.LLM.OpenAI.APIKeyEnv)
		}
		return openaillm.NewClient(openaillm.Config{
			BaseURL:   cfg.LLM.OpenAI.BaseURL,
			APIKey:    key,
			Model:     cfg.LLM.OpenAI.Model,
			MaxTokens: cfg.LLM.OpenAI.MaxTokens,
			Timeout:   time.Duration(cfg.LLM.OpenAI.TimeoutSecs) * time.Second,
		}), nil
	case "ollama", "":
		if cfg.LLM.Ollama == nil {
			return nil, fmt.Errorf("ollama llm config missing")
		}
		return ollamallm.NewClient(ollamallm.Config{
			BaseURL: cfg.LLM.Ollama.BaseURL,
			Model:   cfg.LLM.Ollama.Model,
			Timeout: time.Duration(cfg.LLM.Ollama.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm: %s", cfg.LLM.Type)
	}
}

// ChatService wires the full pipeline from configuration.
func ChatService(cfg *config.AppConfig) (*service.ChatService, error) {
	newEmbedder, err := EmbedderFactory(cfg)
	if err != nil {
		return nil, err
	}
	gen, err := Generator(cfg)
	if err != nil {
		return nil, err
	}
	store := file.NewStorage(cfg.StoreRoot)
	ret := retriever.New(store, retriever.StateAwareFactory(newEmbedder()), cfg.Retriever.FetchK, cfg.Retriever.Lambda)
	return service.New(service.Deps{
		DocumentsRoot: cfg.DocumentsRoot,
		Ingestor:      ingest.NewDirectoryLoader(),
		Chunker:       chunker.NewRecursiveChunker(cfg.Chunker.MaxChars, cfg.Chunker.OverlapChars),
		NewEmbedder:   newEmbedder,
		Store:         store,
		Retriever:     ret,
		Generator:     gen,
		Memory:        memory.NewBuffer(cfg.Memory.Capacity),
		TopK:          cfg.Retriever.TopK,
	}), nil
}
