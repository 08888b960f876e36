package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"document-analyzer/internal/models"
)

const (
	ProviderSSE    = "sse"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	ExcerptPrefix   = "prefix"
	ExcerptRelevant = "relevant"

	defaultBaseURL      = "http://localhost:11434/v1"
	defaultKey          = "ollama"
	defaultModel        = "deepseek-r1:1.5b"
	defaultEmbedBaseURL = "http://localhost:11434"
	defaultEmbedModel   = "nomic-embed-text"
	defaultChunkSize    = 1000 // chars
	defaultChunkOverlap = 200  // chars
	defaultTopK         = 4
	defaultAddr         = ":8080"
	defaultMaxUpload    = 32 << 20
)

type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Modes    []models.Mode  `yaml:"modes"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// LLMConfig describes one model endpoint. Timeout 0 means no client timeout.
type LLMConfig struct {
	Provider string        `yaml:"provider"`
	BaseURL  string        `yaml:"base_url"`
	Key      string        `yaml:"key"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

type AnalysisConfig struct {
	SystemPrompt      string                `yaml:"system_prompt"`
	Template          string                `yaml:"template"`
	SynthesisTemplate string                `yaml:"synthesis_template"`
	FindingChars      int                   `yaml:"finding_chars"`
	Excerpt           ExcerptConfig         `yaml:"excerpt"`
	Passes            []models.AnalysisPass `yaml:"passes"`
}

type ExcerptConfig struct {
	Strategy     string `yaml:"strategy"`
	PrefixChars  int    `yaml:"prefix_chars"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	TopK         int    `yaml:"top_k"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given: a local
// Ollama server behind its OpenAI-compatible endpoint.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadEnv reads .env style files into the process environment. Missing
// files are ignored; a file that exists but cannot be parsed is an error.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides endpoint settings from the environment.
func (c *Config) ApplyEnv() {
	setFromEnv(&c.LLM.Provider, "LLM_PROVIDER")
	setFromEnv(&c.LLM.BaseURL, "LLM_BASE_URL")
	setFromEnv(&c.LLM.Key, "LLM_API_KEY")
	setFromEnv(&c.LLM.Model, "LLM_MODEL")
	setFromEnv(&c.EmbedLLM.BaseURL, "EMBED_BASE_URL")
	setFromEnv(&c.EmbedLLM.Model, "EMBED_MODEL")
	setFromEnv(&c.Log.Level, "LOG_LEVEL")
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
}

func setFromEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderSSE
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultBaseURL
	}
	if c.LLM.Key == "" {
		c.LLM.Key = defaultKey
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaultModel
	}

	if c.EmbedLLM.Provider == "" {
		c.EmbedLLM.Provider = ProviderOllama
	}
	if c.EmbedLLM.BaseURL == "" {
		c.EmbedLLM.BaseURL = defaultEmbedBaseURL
	}
	if c.EmbedLLM.Model == "" {
		c.EmbedLLM.Model = defaultEmbedModel
	}

	a := &c.Analysis
	if a.SystemPrompt == "" {
		a.SystemPrompt = models.AnalysisSystemPrompt
	}
	if a.Template == "" {
		a.Template = models.PassPromptTemplate
	}
	if a.SynthesisTemplate == "" {
		a.SynthesisTemplate = models.SynthesisPromptTemplate
	}
	if a.FindingChars <= 0 {
		a.FindingChars = models.DefaultFindingChars
	}
	if a.Excerpt.Strategy == "" {
		a.Excerpt.Strategy = ExcerptPrefix
	}
	if a.Excerpt.PrefixChars <= 0 {
		a.Excerpt.PrefixChars = models.DefaultPrefixChars
	}
	if a.Excerpt.ChunkSize <= 0 {
		a.Excerpt.ChunkSize = defaultChunkSize
	}
	if a.Excerpt.ChunkOverlap < 0 || a.Excerpt.ChunkOverlap >= a.Excerpt.ChunkSize {
		a.Excerpt.ChunkOverlap = defaultChunkOverlap
	}
	if a.Excerpt.TopK <= 0 {
		a.Excerpt.TopK = defaultTopK
	}
	if len(a.Passes) == 0 {
		a.Passes = models.DefaultPasses()
	}

	if len(c.Modes) == 0 {
		c.Modes = models.DefaultModes()
	}

	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = defaultMaxUpload
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderSSE, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("llm.provider %q: %w", c.LLM.Provider, models.ErrUnsupportedProvider)
	}
	switch c.Analysis.Excerpt.Strategy {
	case ExcerptPrefix, ExcerptRelevant:
	default:
		return fmt.Errorf("analysis.excerpt.strategy %q is not one of %s, %s",
			c.Analysis.Excerpt.Strategy, ExcerptPrefix, ExcerptRelevant)
	}
	for i, p := range c.Analysis.Passes {
		if strings.TrimSpace(p.Label) == "" || strings.TrimSpace(p.Query) == "" {
			return fmt.Errorf("analysis.passes[%d]: label and query are required", i)
		}
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout must not be negative")
	}
	return nil
}
