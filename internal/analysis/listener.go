package analysis

import "document-analyzer/internal/models"

// Listener observes an analysis as it runs. Calls arrive sequentially, in
// (document, pass) order, on the goroutine that called Analyze.
type Listener interface {
	PassStarted(doc *models.Document, pass *models.AnalysisPass)
	// Partial carries the full text accumulated so far for the pass.
	Partial(doc *models.Document, pass *models.AnalysisPass, text string)
	ResultReady(result models.AnalysisResult)
	SynthesisStarted(documents []string)
	SynthesisPartial(text string)
}

type NopListener struct{}

func (NopListener) PassStarted(*models.Document, *models.AnalysisPass) {}
func (NopListener) Partial(*models.Document, *models.AnalysisPass, string) {}
func (NopListener) ResultReady(models.AnalysisResult) {}
func (NopListener) SynthesisStarted([]string) {}
func (NopListener) SynthesisPartial(string) {}
