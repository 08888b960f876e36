// Package session runs one streaming chat completion from request to final text.
package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"document-analyzer/internal/llmservice"
	"document-analyzer/internal/models"
)

// PartialFunc receives the full text accumulated so far, after every fragment.
type PartialFunc func(text string)

// Result is the outcome of one Run. Text holds everything received before a
// failure; Err is a *models.TransportError when the stream failed.
type Result struct {
	Text string
	Err  error
}

// Message returns the user-facing "Error: <cause>" text, empty on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Session issues completion requests through a shared, read-only streamer.
// It keeps no state between calls to Run.
type Session struct {
	streamer llmservice.Streamer
	model    string
}

func New(streamer llmservice.Streamer, model string) *Session {
	return &Session{streamer: streamer, model: model}
}

// Run streams a completion for systemPrompt and userPrompt. A failure ends
// the session without retry; fragments received before it are kept.
func (s *Session) Run(ctx context.Context, systemPrompt, userPrompt string, onPartial PartialFunc) Result {
	req := models.NewInferenceRequest(s.model, systemPrompt, userPrompt)
	started := time.Now()

	var (
		response  strings.Builder
		fragments int
	)
	finish := func(err error) Result {
		event := log.Debug()
		if err != nil {
			err = &models.TransportError{Err: err}
			event = log.Warn().Err(err)
		}
		event.
			Str("model", s.model).
			Int("fragments", fragments).
			Int("bytes", response.Len()).
			Dur("elapsed", time.Since(started)).
			Msg("Completion finished")
		return Result{Text: response.String(), Err: err}
	}

	stream, err := s.streamer.Stream(ctx, req)
	if err != nil {
		return finish(err)
	}
	defer stream.Close()

	for {
		fragment, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return finish(nil)
		}
		if err != nil {
			return finish(err)
		}
		if fragment == "" {
			continue
		}
		fragments++
		response.WriteString(fragment)
		if onPartial != nil {
			onPartial(response.String())
		}
	}
}
