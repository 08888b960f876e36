package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"document-analyzer/internal/analysis"
	"document-analyzer/internal/excerpt"
	"document-analyzer/internal/helper"
	"document-analyzer/internal/models"
	"document-analyzer/internal/parser"
	"document-analyzer/internal/report"
)

var (
	analyzeQuery        string
	analyzeFormat       string
	analyzeOut          string
	analyzeHideThinking bool
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Analyze documents with a query and the configured passes",
	Long: `Extracts each document (PDF, text, markdown, DOCX, XLSX, XLSM, PPTX) and runs
the query plus every configured pass on it, one request at a time. With two or
more readable documents the findings are compared across documents.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeQuery, "query", "q", "", "question for the main analysis pass")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", report.FormatMarkdown, "report format: markdown, html or json")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzeHideThinking, "hide-thinking", false, "drop <think> blocks from model output")
	rootCmd.AddCommand(analyzeCmd)
}

// progressListener reports each finished step on stderr.
type progressListener struct {
	analysis.NopListener
	out io.Writer
}

func (l progressListener) ResultReady(r models.AnalysisResult) {
	if r.Outcome.OK() {
		fmt.Fprintf(l.out, "%s %s / %s\n", okStyle.Render("✓"), r.Document.Name, r.PassLabel())
		return
	}
	fmt.Fprintf(l.out, "%s %s / %s: %s\n", failStyle.Render("✗"), r.Document.Name, r.PassLabel(), r.Outcome.Message())
}

func (l progressListener) SynthesisStarted(documents []string) {
	fmt.Fprintf(l.out, "Comparing %d documents\n", len(documents))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	opts := report.Options{HideThinking: analyzeHideThinking}
	format, err := report.ParseFormat(analyzeFormat)
	if err != nil {
		return err
	}

	docs := make([]*models.Document, 0, len(args))
	for _, path := range args {
		doc, err := parser.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		docs = append(docs, doc)
	}

	sess, err := newSession()
	if err != nil {
		return err
	}

	selector, err := excerpt.NewSelector(&cfg.Analysis.Excerpt, &cfg.EmbedLLM)
	if err != nil {
		return err
	}
	if r, ok := selector.(*excerpt.RelevantSelector); ok {
		defer r.Reset()
	}

	analyzer, err := analysis.New(sess, append(
		analysis.OptionsFromConfig(&cfg.Analysis, selector),
		analysis.WithListener(progressListener{out: cmd.ErrOrStderr()}),
	)...)
	if err != nil {
		return err
	}

	run := analyzer.Analyze(context.Background(), docs, analysis.BuildPasses(analyzeQuery, cfg.Analysis.Passes))

	out, err := report.Render(run, format, opts)
	if err != nil {
		return err
	}
	if analyzeOut == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}

	if err := helper.CreateFolder(filepath.Dir(analyzeOut)); err != nil {
		return err
	}
	if err := os.WriteFile(analyzeOut, out, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", analyzeOut)
	return nil
}
