package llmservice

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"document-analyzer/internal/config"
	"document-analyzer/internal/models"
)

// LangchainStreamer streams through a langchaingo model. The provider pushes
// chunks into a callback; the returned stream turns that into pulls.
type LangchainStreamer struct {
	model llms.Model
}

var _ Streamer = (*LangchainStreamer)(nil)

func NewLangchainStreamer(llmConfig *config.LLMConfig) (*LangchainStreamer, error) {
	log.Debug().
		Str("provider", llmConfig.Provider).
		Str("base_url", llmConfig.BaseURL).
		Str("model", llmConfig.Model).
		Msg("Creating langchain model")

	var (
		model llms.Model
		err   error
	)
	switch llmConfig.Provider {
	case config.ProviderOpenAI:
		model, err = openai.New(
			openai.WithBaseURL(llmConfig.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
			openai.WithHTTPClient(newHTTPClient(llmConfig)),
		)
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithServerURL(OllamaServerURL(llmConfig.BaseURL)),
			ollama.WithModel(llmConfig.Model),
			ollama.WithHTTPClient(newHTTPClient(llmConfig)),
		)
	default:
		return nil, fmt.Errorf("provider %q: %w", llmConfig.Provider, models.ErrUnsupportedProvider)
	}
	if err != nil {
		return nil, err
	}
	return NewLangchainStreamerFromModel(model), nil
}

func NewLangchainStreamerFromModel(model llms.Model) *LangchainStreamer {
	return &LangchainStreamer{model: model}
}

// OllamaServerURL strips the OpenAI-compatible /v1 suffix so one base URL
// serves both the sse and ollama providers.
func OllamaServerURL(baseURL string) string {
	return strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/v1")
}

func (s *LangchainStreamer) Stream(ctx context.Context, req models.InferenceRequest) (FragmentStream, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, req.SystemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, req.UserPrompt),
	}
	opts := []llms.CallOption{}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}

	ctx, cancel := context.WithCancel(ctx)
	stream := &channelStream{
		fragments: make(chan string),
		errs:      make(chan error, 1),
		cancel:    cancel,
	}
	opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		select {
		case stream.fragments <- string(chunk):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}))

	go func() {
		defer close(stream.fragments)
		if _, err := s.model.GenerateContent(ctx, messages, opts...); err != nil {
			stream.errs <- err
		}
	}()

	return stream, nil
}

// channelStream: errs is written before fragments is closed, so a closed
// fragments channel with an empty errs means a clean finish.
type channelStream struct {
	fragments chan string
	errs      chan error
	cancel    context.CancelFunc
	err       error
}

func (s *channelStream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if frag, ok := <-s.fragments; ok {
		return frag, nil
	}
	select {
	case err := <-s.errs:
		s.err = err
	default:
		s.err = io.EOF
	}
	return "", s.err
}

func (s *channelStream) Close() error {
	s.cancel()
	for range s.fragments {
	}
	return nil
}
