package models

import "time"

// Stage tags which step of an analysis produced an outcome.
type Stage string

const (
	StageExtraction Stage = "extraction"
	StagePass       Stage = "pass"
	StageSynthesis  Stage = "synthesis"
)

// AnalysisPass is a named instruction applied uniformly to every document.
// An empty Template means the analyzer's default pass template.
type AnalysisPass struct {
	Label    string `json:"label" yaml:"label"`
	Query    string `json:"query" yaml:"query"`
	Template string `json:"-" yaml:"template,omitempty"`
}

// Outcome is Success(Text) when Err is nil, Failure otherwise. Text keeps
// whatever the model produced before a failure.
type Outcome struct {
	Stage Stage
	Text  string
	Err   error
}

func (o Outcome) OK() bool { return o.Err == nil }

// Message is the human-readable failure message, empty on success.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// AnalysisResult is the outcome of one (document, pass) pair. Pass is nil
// when the document failed extraction.
type AnalysisResult struct {
	Document *Document
	Pass     *AnalysisPass
	Outcome  Outcome
}

// PassLabel returns the pass label, or the stage name for extraction failures.
func (r AnalysisResult) PassLabel() string {
	if r.Pass == nil {
		return string(r.Outcome.Stage)
	}
	return r.Pass.Label
}

// SynthesisResult is the cross-document comparison of a multi-document run.
type SynthesisResult struct {
	Documents []string
	Outcome   Outcome
}

// Run is the full output of one analysis.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []AnalysisResult
	Synthesis  *SynthesisResult
}

// Failures counts failed results, including a failed synthesis.
func (r Run) Failures() int {
	n := 0
	for _, res := range r.Results {
		if !res.Outcome.OK() {
			n++
		}
	}
	if r.Synthesis != nil && !r.Synthesis.Outcome.OK() {
		n++
	}
	return n
}
