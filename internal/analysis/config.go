package analysis

import (
	"document-analyzer/internal/config"
	"document-analyzer/internal/excerpt"
)

// OptionsFromConfig maps the analysis section of the config file to options.
func OptionsFromConfig(cfg *config.AnalysisConfig, selector excerpt.Selector) []Option {
	return []Option{
		WithSystemPrompt(cfg.SystemPrompt),
		WithTemplate(cfg.Template),
		WithSynthesisTemplate(cfg.SynthesisTemplate),
		WithFindingChars(cfg.FindingChars),
		WithSelector(selector),
	}
}
