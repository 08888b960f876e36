// Package report renders a finished analysis run for people and programs.
package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"document-analyzer/internal/helper"
	"document-analyzer/internal/models"
)

const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

var thinkRe = regexp.MustCompile(models.ThinkTag)

// StripThinking removes <think> blocks emitted by reasoning models.
func StripThinking(text string) string {
	return strings.TrimSpace(thinkRe.ReplaceAllString(text, ""))
}

type Options struct {
	HideThinking bool
}

func (o Options) text(s string) string {
	if o.HideThinking {
		return StripThinking(s)
	}
	return strings.TrimSpace(s)
}

// ParseFormat normalises a report format name.
func ParseFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatMarkdown, "md", "":
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("report %q: %w", format, models.ErrUnsupportedFormat)
	}
}

// Render writes run in the named format.
func Render(run models.Run, format string, opts Options) ([]byte, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatHTML:
		return HTML(run, opts)
	case FormatJSON:
		return JSON(run, opts)
	default:
		return []byte(Markdown(run, opts)), nil
	}
}

// Markdown groups results by document, one section per pass, followed by
// the synthesis when there is one.
func Markdown(run models.Run, opts Options) string {
	var b strings.Builder
	b.WriteString("# Document Analysis\n\n")

	var current *models.Document
	for _, r := range run.Results {
		if r.Document != current {
			current = r.Document
			fmt.Fprintf(&b, "## %s\n\n", current.Name)
		}
		fmt.Fprintf(&b, "### %s\n\n", r.PassLabel())
		writeOutcome(&b, r.Outcome, opts)
	}

	if s := run.Synthesis; s != nil {
		fmt.Fprintf(&b, "## Cross-document comparison\n\n_Documents: %s_\n\n", strings.Join(s.Documents, ", "))
		writeOutcome(&b, s.Outcome, opts)
	}

	if n := run.Failures(); n > 0 {
		fmt.Fprintf(&b, "---\n\n%d of %d steps failed.\n", n, steps(run))
	}
	return b.String()
}

func writeOutcome(b *strings.Builder, o models.Outcome, opts Options) {
	if text := opts.text(o.Text); text != "" {
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	if !o.OK() {
		fmt.Fprintf(b, "> **Failed (%s):** %s\n\n", o.Stage, o.Message())
	}
}

func steps(run models.Run) int {
	n := len(run.Results)
	if run.Synthesis != nil {
		n++
	}
	return n
}

// HTML renders the markdown report as a standalone HTML fragment.
func HTML(run models.Run, opts Options) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(run, opts)), &buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

type OutcomeView struct {
	Stage string `json:"stage"`
	OK    bool   `json:"ok"`
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

type ResultView struct {
	Document string `json:"document"`
	MimeType string `json:"mime_type"`
	Pass     string `json:"pass,omitempty"`
	Query    string `json:"query,omitempty"`
	OutcomeView
}

type SynthesisView struct {
	Documents []string `json:"documents"`
	OutcomeView
}

type RunView struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Failures   int            `json:"failures"`
	Results    []ResultView   `json:"results"`
	Synthesis  *SynthesisView `json:"synthesis,omitempty"`
}

func NewOutcomeView(o models.Outcome, opts Options) OutcomeView {
	return OutcomeView{Stage: string(o.Stage), OK: o.OK(), Text: opts.text(o.Text), Error: o.Message()}
}

func NewResultView(r models.AnalysisResult, opts Options) ResultView {
	v := ResultView{
		Document:    r.Document.Name,
		MimeType:    string(r.Document.MimeType),
		OutcomeView: NewOutcomeView(r.Outcome, opts),
	}
	if r.Pass != nil {
		v.Pass = r.Pass.Label
		v.Query = r.Pass.Query
	}
	return v
}

func NewSynthesisView(s *models.SynthesisResult, opts Options) *SynthesisView {
	if s == nil {
		return nil
	}
	return &SynthesisView{Documents: s.Documents, OutcomeView: NewOutcomeView(s.Outcome, opts)}
}

func NewRunView(run models.Run, opts Options) RunView {
	v := RunView{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Failures:   run.Failures(),
		Results:    make([]ResultView, 0, len(run.Results)),
		Synthesis:  NewSynthesisView(run.Synthesis, opts),
	}
	for _, r := range run.Results {
		v.Results = append(v.Results, NewResultView(r, opts))
	}
	return v
}

func JSON(run models.Run, opts Options) ([]byte, error) {
	return helper.PrettyJSON(NewRunView(run, opts))
}
