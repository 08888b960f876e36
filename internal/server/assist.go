package server

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"document-analyzer/internal/models"
)

type assistRequest struct {
	Mode   string `json:"mode"`
	Prompt string `json:"prompt"`
}

type textEvent struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// handleAssist runs one completion in the requested mode and streams the
// accumulated text after every fragment.
func (s *Server) handleAssist(c *gin.Context) {
	var req assistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		badRequest(c, models.ErrEmptyPrompt)
		return
	}

	modes := s.cfg.Modes
	if len(modes) == 0 {
		modes = models.DefaultModes()
	}
	mode := modes[0]
	if req.Mode != "" {
		var ok bool
		if mode, ok = models.FindMode(modes, req.Mode); !ok {
			badRequest(c, fmt.Errorf("%w: %s", models.ErrUnknownMode, req.Mode))
			return
		}
	}

	startStream(c)
	res := s.runner.Run(c.Request.Context(), mode.SystemPrompt, req.Prompt, func(text string) {
		sendEvent(c, "partial", textEvent{Text: text})
	})
	if res.Err != nil {
		sendEvent(c, "error", textEvent{Text: res.Text, Error: res.Message()})
		return
	}
	sendEvent(c, "done", textEvent{Text: res.Text})
}
