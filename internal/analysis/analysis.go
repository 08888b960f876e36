// Package analysis fans extracted documents out into analysis passes and,
// for multi-document batches, a cross-document synthesis.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog/log"

	"document-analyzer/internal/excerpt"
	"document-analyzer/internal/helper"
	"document-analyzer/internal/models"
	"document-analyzer/internal/parser"
	"document-analyzer/internal/session"
)

// Runner runs one streaming completion. *session.Session implements it.
type Runner interface {
	Run(ctx context.Context, systemPrompt, userPrompt string, onPartial session.PartialFunc) session.Result
}

// Extractor turns a document into plain text.
type Extractor func(doc *models.Document) (string, error)

var templateFuncs = template.FuncMap{"join": strings.Join}

// Analyzer runs every pass over every document, one completion at a time.
type Analyzer struct {
	runner       Runner
	systemPrompt string
	passTmpl     *template.Template
	synthTmpl    *template.Template
	selector     excerpt.Selector
	extract      Extractor
	listener     Listener
	findingChars int
}

type options struct {
	systemPrompt      string
	template          string
	synthesisTemplate string
	selector          excerpt.Selector
	extract           Extractor
	listener          Listener
	findingChars      int
}

type Option func(*options)

func WithSystemPrompt(prompt string) Option {
	return func(o *options) {
		if prompt != "" {
			o.systemPrompt = prompt
		}
	}
}

// WithTemplate sets the default pass template, rendered with .Document,
// .Excerpt and .Query.
func WithTemplate(tmpl string) Option {
	return func(o *options) {
		if tmpl != "" {
			o.template = tmpl
		}
	}
}

func WithSynthesisTemplate(tmpl string) Option {
	return func(o *options) {
		if tmpl != "" {
			o.synthesisTemplate = tmpl
		}
	}
}

func WithSelector(selector excerpt.Selector) Option {
	return func(o *options) {
		if selector != nil {
			o.selector = selector
		}
	}
}

func WithExtractor(extract Extractor) Option {
	return func(o *options) {
		if extract != nil {
			o.extract = extract
		}
	}
}

func WithListener(listener Listener) Option {
	return func(o *options) {
		if listener != nil {
			o.listener = listener
		}
	}
}

// WithFindingChars bounds each pass output quoted in the synthesis prompt.
func WithFindingChars(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.findingChars = n
		}
	}
}

func New(runner Runner, opts ...Option) (*Analyzer, error) {
	if runner == nil {
		return nil, errors.New("analysis: runner is required")
	}

	o := options{
		systemPrompt:      models.AnalysisSystemPrompt,
		template:          models.PassPromptTemplate,
		synthesisTemplate: models.SynthesisPromptTemplate,
		selector:          excerpt.PrefixSelector{MaxChars: models.DefaultPrefixChars},
		extract:           parser.Extract,
		listener:          NopListener{},
		findingChars:      models.DefaultFindingChars,
	}
	for _, opt := range opts {
		opt(&o)
	}

	passTmpl, err := parseTemplate("pass", o.template)
	if err != nil {
		return nil, err
	}
	synthTmpl, err := parseTemplate("synthesis", o.synthesisTemplate)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		runner:       runner,
		systemPrompt: o.systemPrompt,
		passTmpl:     passTmpl,
		synthTmpl:    synthTmpl,
		selector:     o.selector,
		extract:      o.extract,
		listener:     o.listener,
		findingChars: o.findingChars,
	}, nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	return tmpl, nil
}

// BuildPasses puts the user's own query first, as the main analysis, ahead
// of the configured passes. No configured passes means the defaults.
func BuildPasses(query string, configured []models.AnalysisPass) []models.AnalysisPass {
	if len(configured) == 0 {
		configured = models.DefaultPasses()
	}
	var passes []models.AnalysisPass
	if q := strings.TrimSpace(query); q != "" {
		passes = append(passes, models.AnalysisPass{Label: models.MainAnalysisPassLabel, Query: q})
	}
	return append(passes, configured...)
}

// Analyze extracts each document and runs every pass on it, in input order.
// Failures are recorded on the result they belong to and never stop the
// batch. When at least two documents were extracted, a synthesis compares
// their findings.
func (a *Analyzer) Analyze(ctx context.Context, docs []*models.Document, passes []models.AnalysisPass) models.Run {
	passes = slices.Clone(passes)
	run := models.Run{ID: newRunID(), StartedAt: time.Now()}

	logger := log.With().Str("run", run.ID).Logger()
	logger.Info().Int("documents", len(docs)).Int("passes", len(passes)).Msg("Starting analysis")

	var extracted []*models.Document
	for _, doc := range docs {
		text, err := a.extract(doc)
		if err != nil {
			logger.Warn().Err(err).Str("document", doc.Name).Msg("Skipping document")
			a.record(&run, models.AnalysisResult{
				Document: doc,
				Outcome:  models.Outcome{Stage: models.StageExtraction, Err: extractionError(doc, err)},
			})
			continue
		}
		extracted = append(extracted, doc)

		for i := range passes {
			a.record(&run, a.runPass(ctx, doc, text, &passes[i]))
		}
	}

	if len(extracted) >= 2 {
		run.Synthesis = a.synthesize(ctx, extracted, run.Results)
	}

	run.FinishedAt = time.Now()
	logger.Info().
		Int("results", len(run.Results)).
		Int("failures", run.Failures()).
		Bool("synthesis", run.Synthesis != nil).
		Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).
		Msg("Analysis finished")
	return run
}

func (a *Analyzer) record(run *models.Run, result models.AnalysisResult) {
	run.Results = append(run.Results, result)
	a.listener.ResultReady(result)
}

type passData struct {
	Document string
	Excerpt  string
	Query    string
}

func (a *Analyzer) runPass(ctx context.Context, doc *models.Document, text string, pass *models.AnalysisPass) models.AnalysisResult {
	result := models.AnalysisResult{Document: doc, Pass: pass, Outcome: models.Outcome{Stage: models.StagePass}}
	fail := func(err error) models.AnalysisResult {
		result.Outcome.Err = &models.PassError{Document: doc.Name, Pass: pass.Label, Err: err}
		return result
	}

	a.listener.PassStarted(doc, pass)

	bounded, err := a.selector.Select(ctx, doc, text, pass.Query)
	if err != nil {
		return fail(fmt.Errorf("select excerpt: %w", err))
	}

	tmpl := a.passTmpl
	if pass.Template != "" {
		if tmpl, err = parseTemplate(pass.Label, pass.Template); err != nil {
			return fail(err)
		}
	}
	prompt, err := render(tmpl, passData{Document: doc.Name, Excerpt: bounded, Query: pass.Query})
	if err != nil {
		return fail(err)
	}

	res := a.runner.Run(ctx, a.systemPrompt, prompt, func(partial string) {
		a.listener.Partial(doc, pass, partial)
	})
	result.Outcome.Text = res.Text
	if res.Err != nil {
		log.Warn().Err(res.Err).Str("document", doc.Name).Str("pass", pass.Label).Msg("Pass failed")
		return fail(res.Err)
	}
	return result
}

type finding struct {
	Label string
	Text  string
}

type documentFindings struct {
	Name     string
	Findings []finding
}

type synthesisData struct {
	Names     []string
	Documents []documentFindings
}

func (a *Analyzer) synthesize(ctx context.Context, docs []*models.Document, results []models.AnalysisResult) *models.SynthesisResult {
	data := synthesisData{}
	for _, doc := range docs {
		df := documentFindings{Name: doc.Name}
		for _, r := range results {
			if r.Document != doc || r.Pass == nil || !r.Outcome.OK() {
				continue
			}
			df.Findings = append(df.Findings, finding{
				Label: r.Pass.Label,
				Text:  excerpt.Prefix(strings.TrimSpace(r.Outcome.Text), a.findingChars),
			})
		}
		data.Names = append(data.Names, doc.Name)
		data.Documents = append(data.Documents, df)
	}

	synthesis := &models.SynthesisResult{
		Documents: data.Names,
		Outcome:   models.Outcome{Stage: models.StageSynthesis},
	}
	a.listener.SynthesisStarted(data.Names)

	prompt, err := render(a.synthTmpl, data)
	if err != nil {
		synthesis.Outcome.Err = err
		return synthesis
	}

	res := a.runner.Run(ctx, a.systemPrompt, prompt, a.listener.SynthesisPartial)
	synthesis.Outcome.Text = res.Text
	synthesis.Outcome.Err = res.Err
	if res.Err != nil {
		log.Warn().Err(res.Err).Strs("documents", data.Names).Msg("Synthesis failed")
	}
	return synthesis
}

func render(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

func extractionError(doc *models.Document, err error) error {
	var extractErr *models.ExtractionError
	if errors.As(err, &extractErr) {
		return err
	}
	return &models.ExtractionError{Document: doc.Name, MimeType: doc.MimeType, Err: err}
}

func newRunID() string {
	id, err := helper.GenerateUUID()
	if err != nil {
		log.Warn().Err(err).Msg("Falling back to a time-based run id")
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return id
}
