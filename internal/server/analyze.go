package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"document-analyzer/internal/analysis"
	"document-analyzer/internal/excerpt"
	"document-analyzer/internal/models"
	"document-analyzer/internal/parser"
	"document-analyzer/internal/report"
)

type partialEvent struct {
	Document string `json:"document"`
	Pass     string `json:"pass"`
	Text     string `json:"text"`
}

type synthesisStartedEvent struct {
	Documents []string `json:"documents"`
}

// sseListener forwards analysis progress to the client as it happens.
type sseListener struct {
	c    *gin.Context
	opts report.Options
}

func (l *sseListener) PassStarted(doc *models.Document, pass *models.AnalysisPass) {
	sendEvent(l.c, "pass_started", partialEvent{Document: doc.Name, Pass: pass.Label})
}

func (l *sseListener) Partial(doc *models.Document, pass *models.AnalysisPass, text string) {
	sendEvent(l.c, "partial", partialEvent{Document: doc.Name, Pass: pass.Label, Text: text})
}

func (l *sseListener) ResultReady(result models.AnalysisResult) {
	sendEvent(l.c, "result", report.NewResultView(result, l.opts))
}

func (l *sseListener) SynthesisStarted(documents []string) {
	sendEvent(l.c, "synthesis_started", synthesisStartedEvent{Documents: documents})
}

func (l *sseListener) SynthesisPartial(text string) {
	sendEvent(l.c, "synthesis_partial", textEvent{Text: text})
}

// handleAnalyze reads uploaded documents and streams the analysis of every
// pass over every document, then the synthesis and the full run.
func (s *Server) handleAnalyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.Server.MaxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, fmt.Errorf("invalid upload: %w", err))
		return
	}

	uploads := form.File["files"]
	if len(uploads) == 0 {
		badRequest(c, errors.New("at least one file is required in field \"files\""))
		return
	}

	docs := make([]*models.Document, 0, len(uploads))
	for _, fh := range uploads {
		f, err := fh.Open()
		if err != nil {
			badRequest(c, fmt.Errorf("open %s: %w", fh.Filename, err))
			return
		}
		doc, err := parser.FromReader(fh.Filename, fh.Header.Get("Content-Type"), f)
		f.Close()
		if err != nil {
			badRequest(c, err)
			return
		}
		docs = append(docs, doc)
	}

	hideThinking, _ := strconv.ParseBool(c.PostForm("hide_thinking"))
	opts := report.Options{HideThinking: hideThinking}

	selector, err := s.newSelector()
	if err != nil {
		log.Error().Err(err).Msg("Error creating excerpt selector")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if r, ok := selector.(*excerpt.RelevantSelector); ok {
		defer r.Reset()
	}

	analyzer, err := analysis.New(s.runner, append(
		analysis.OptionsFromConfig(&s.cfg.Analysis, selector),
		analysis.WithListener(&sseListener{c: c, opts: opts}),
	)...)
	if err != nil {
		log.Error().Err(err).Msg("Error creating analyzer")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	passes := analysis.BuildPasses(c.PostForm("query"), s.cfg.Analysis.Passes)

	startStream(c)
	run := analyzer.Analyze(c.Request.Context(), docs, passes)
	if run.Synthesis != nil {
		sendEvent(c, "synthesis", *report.NewSynthesisView(run.Synthesis, opts))
	}
	sendEvent(c, "done", report.NewRunView(run, opts))
}
