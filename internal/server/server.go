package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"document-analyzer/internal/analysis"
	"document-analyzer/internal/config"
	"document-analyzer/internal/excerpt"
)

// SelectorFactory builds the excerpt selector for one analysis request.
type SelectorFactory func() (excerpt.Selector, error)

// Server holds the state for the streaming REST API.
type Server struct {
	cfg         *config.Config
	runner      analysis.Runner
	newSelector SelectorFactory
	router      *gin.Engine
}

// NewServer creates a new Server. runner is shared by every request and
// used for one completion at a time per request.
func NewServer(cfg *config.Config, runner analysis.Runner) *Server {
	s := &Server{
		cfg:    cfg,
		runner: runner,
		newSelector: func() (excerpt.Selector, error) {
			return excerpt.NewSelector(&cfg.Analysis.Excerpt, &cfg.EmbedLLM)
		},
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	s.router = r
	s.setupRoutes()
	return s
}

// WithSelectorFactory replaces the config-driven excerpt selector.
func (s *Server) WithSelectorFactory(f SelectorFactory) *Server {
	s.newSelector = f
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.healthCheck)
	s.router.GET("/v1/modes", s.handleModes)
	s.router.POST("/v1/assist", s.handleAssist)
	s.router.POST("/v1/analyze", s.handleAnalyze)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleModes(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.Modes)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// startStream switches the response to Server-Sent Events.
func startStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
}

func sendEvent(c *gin.Context, name string, data any) {
	c.SSEvent(name, data)
	c.Writer.Flush()
}
