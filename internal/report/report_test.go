package report

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-analyzer/internal/models"
)

func sampleRun() models.Run {
	a := models.NewDocument("a.pdf", models.MimePDF, nil)
	b := models.NewDocument("b.txt", models.MimePlainText, nil)
	c := models.NewDocument("c.pdf", models.MimePDF, nil)
	main := &models.AnalysisPass{Label: "Main Analysis", Query: "What is new?"}
	summary := &models.AnalysisPass{Label: "Summary", Query: "Provide a brief summary"}

	return models.Run{
		ID: "run-1",
		Results: []models.AnalysisResult{
			{Document: a, Pass: main, Outcome: models.Outcome{Stage: models.StagePass, Text: "<think>hmm</think>\nA is **new**"}},
			{Document: a, Pass: summary, Outcome: models.Outcome{Stage: models.StagePass, Text: "half", Err: &models.TransportError{Err: errors.New("reset")}}},
			{Document: b, Pass: main, Outcome: models.Outcome{Stage: models.StagePass, Text: "B answer"}},
			{Document: b, Pass: summary, Outcome: models.Outcome{Stage: models.StagePass, Text: "B summary"}},
			{Document: c, Outcome: models.Outcome{Stage: models.StageExtraction, Err: &models.ExtractionError{Document: "c.pdf", MimeType: models.MimePDF, Err: errors.New("bad xref")}}},
		},
		Synthesis: &models.SynthesisResult{
			Documents: []string{"a.pdf", "b.txt"},
			Outcome:   models.Outcome{Stage: models.StageSynthesis, Text: "They agree."},
		},
	}
}

func TestStripThinking(t *testing.T) {
	assert.Equal(t, "answer", StripThinking("<think>\nreasoning\nmore</think>\n\nanswer"))
	assert.Equal(t, "a b", StripThinking("a <think>x</think>b"))
	assert.Equal(t, "plain", StripThinking("plain"))
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleRun(), Options{})

	assert.Contains(t, md, "## a.pdf\n\n### Main Analysis\n\n<think>hmm</think>\nA is **new**\n\n")
	assert.Contains(t, md, "### Summary\n\nhalf\n\n> **Failed (pass):** Error: reset\n\n")
	assert.Contains(t, md, "## c.pdf\n\n### extraction\n\n> **Failed (extraction):**")
	assert.Contains(t, md, "## Cross-document comparison\n\n_Documents: a.pdf, b.txt_\n\nThey agree.")
	assert.Contains(t, md, "2 of 6 steps failed.")

	hidden := Markdown(sampleRun(), Options{HideThinking: true})
	assert.NotContains(t, hidden, "<think>")
	assert.Contains(t, hidden, "### Main Analysis\n\nA is **new**\n\n")
}

func TestHTML(t *testing.T) {
	out, err := HTML(sampleRun(), Options{HideThinking: true})
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<h1>Document Analysis</h1>")
	assert.Contains(t, html, "<h2>a.pdf</h2>")
	assert.Contains(t, html, "<strong>new</strong>")
	assert.Contains(t, html, "<blockquote>")
}

func TestJSON(t *testing.T) {
	out, err := JSON(sampleRun(), Options{HideThinking: true})
	require.NoError(t, err)

	var view RunView
	require.NoError(t, json.Unmarshal(out, &view))
	assert.Equal(t, "run-1", view.ID)
	assert.Equal(t, 2, view.Failures)
	require.Len(t, view.Results, 5)

	assert.Equal(t, ResultView{
		Document:    "a.pdf",
		MimeType:    string(models.MimePDF),
		Pass:        "Main Analysis",
		Query:       "What is new?",
		OutcomeView: OutcomeView{Stage: "pass", OK: true, Text: "A is **new**"},
	}, view.Results[0])
	assert.Equal(t, "Error: reset", view.Results[1].Error)
	assert.Empty(t, view.Results[4].Pass)
	assert.Equal(t, "extraction", view.Results[4].Stage)

	require.NotNil(t, view.Synthesis)
	assert.Equal(t, []string{"a.pdf", "b.txt"}, view.Synthesis.Documents)
}

func TestRender(t *testing.T) {
	for _, format := range []string{"", "markdown", "md", "html", "JSON"} {
		out, err := Render(sampleRun(), format, Options{})
		require.NoError(t, err, format)
		assert.NotEmpty(t, out)
	}
	_, err := Render(sampleRun(), "pdf", Options{})
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}
