package llmservice

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"document-analyzer/internal/config"
	"document-analyzer/internal/models"
)

const maxErrorBody = 4 << 10

// SSEClient streams chat completions from any OpenAI-compatible endpoint
// (Ollama's /v1, LM Studio, vLLM, OpenRouter).
type SSEClient struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

var _ Streamer = (*SSEClient)(nil)

func NewSSEClient(llmConfig *config.LLMConfig) *SSEClient {
	return &SSEClient{
		baseURL:    strings.TrimRight(llmConfig.BaseURL, "/"),
		key:        strings.TrimPrefix(llmConfig.Key, "Bearer "),
		httpClient: newHTTPClient(llmConfig),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// content is a pointer so a JSON null or a missing key is told apart from "".
type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *SSEClient) Stream(ctx context.Context, req models.InferenceRequest) (FragmentStream, error) {
	payload := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: models.RoleSystem, Content: req.SystemPrompt},
			{Role: models.RoleUser, Content: req.UserPrompt},
		},
		Stream: true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.key)
	}

	log.Debug().Str("url", httpReq.URL.String()).Str("model", req.Model).Msg("Opening completion stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("request failed: %d, %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return &sseStream{body: resp.Body, reader: bufio.NewReader(resp.Body)}, nil
}

type sseStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	done   bool
}

func (s *sseStream) Next() (string, error) {
	for {
		if s.done {
			return "", io.EOF
		}

		line, err := s.reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("read stream: %w", err)
			}
			s.done = true
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		// event:, id: and retry: fields carry no text
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", fmt.Errorf("decode chunk: %w", err)
		}
		if chunk.Error != nil {
			return "", fmt.Errorf("endpoint error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == nil {
			continue
		}
		return *chunk.Choices[0].Delta.Content, nil
	}
}

func (s *sseStream) Close() error {
	return s.body.Close()
}
