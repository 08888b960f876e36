package llmservice

import (
	"context"
	"fmt"
	"net/http"

	"document-analyzer/internal/config"
	"document-analyzer/internal/models"
)

// Streamer opens a streaming chat completion for one request.
type Streamer interface {
	Stream(ctx context.Context, req models.InferenceRequest) (FragmentStream, error)
}

// FragmentStream yields text fragments in emission order. Next returns
// io.EOF once the endpoint has finished; a stream cannot be restarted.
type FragmentStream interface {
	Next() (string, error)
	Close() error
}

// NewStreamer builds the streamer for the configured provider.
func NewStreamer(llmConfig *config.LLMConfig) (Streamer, error) {
	switch llmConfig.Provider {
	case config.ProviderSSE, "":
		return NewSSEClient(llmConfig), nil
	case config.ProviderOpenAI, config.ProviderOllama:
		return NewLangchainStreamer(llmConfig)
	default:
		return nil, fmt.Errorf("provider %q: %w", llmConfig.Provider, models.ErrUnsupportedProvider)
	}
}

func newHTTPClient(llmConfig *config.LLMConfig) *http.Client {
	// zero timeout: a hung endpoint blocks until the caller's context ends
	return &http.Client{Timeout: llmConfig.Timeout}
}
