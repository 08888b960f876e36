package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-analyzer/internal/config"
	"document-analyzer/internal/llmservice"
	"document-analyzer/internal/models"
)

// NewEmbedder creates an embedder for the configured embedding endpoint.
// The sse provider has no embedding API of its own and is served through
// the Ollama client.
func NewEmbedder(embedConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]string{
		"provider":        embedConfig.Provider,
		"base_url":        embedConfig.BaseURL,
		"embedding_model": embedConfig.Model,
	}).Msg("Creating embedder")

	switch embedConfig.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIEmbedder(embedConfig)
	case config.ProviderOllama, config.ProviderSSE, "":
		return NewOllamaEmbedder(embedConfig)
	default:
		return nil, fmt.Errorf("embedding provider %q: %w", embedConfig.Provider, models.ErrUnsupportedProvider)
	}
}

func NewOpenAIEmbedder(embedConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(embedConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(embedConfig.Key, "Bearer ")),
		openai.WithEmbeddingModel(embedConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init openai embedding client: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// new ollama embedder
func NewOllamaEmbedder(embedConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(llmservice.OllamaServerURL(embedConfig.BaseURL)),
		ollama.WithModel(embedConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init ollama embedding client: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// EmbeddingFunc adapts a langchaingo embedder to chromem-go.
func EmbeddingFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vector, err := embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text: %w", err)
		}
		if len(vector) == 0 {
			return nil, fmt.Errorf("embed text: empty embedding")
		}
		return vector, nil
	}
}
