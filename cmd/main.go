package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"document-analyzer/internal/config"
	"document-analyzer/internal/llmservice"
	"document-analyzer/internal/models"
	"document-analyzer/internal/session"
)

const configFilePath = "./configs/config.yaml"

var (
	configPath string
	logLevel   string

	cfg *config.Config

	// swapped in tests
	newStreamer = llmservice.NewStreamer
)

var rootCmd = &cobra.Command{
	Use:   "document-analyzer",
	Short: "Stream answers and document analyses from a local model",
	Long: `Talks to a locally hosted chat-completion endpoint.
Runs code-assistant prompts, fans documents out into analysis passes with a
cross-document comparison, or serves both over HTTP with Server-Sent Events.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config (default "+configFilePath+" when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	var transportErr *models.TransportError
	if errors.As(err, &transportErr) {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprintln(w, "Error:", err)
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnv(".env"); err != nil {
		return err
	}

	path := configPath
	if path == "" {
		if _, err := os.Stat(configFilePath); err == nil {
			path = configFilePath
		}
	}

	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	setupLogger(cfg.Log.Level, cmd.ErrOrStderr())
	log.Debug().Str("config", path).Interface("llm", map[string]string{
		"provider": cfg.LLM.Provider,
		"base_url": cfg.LLM.BaseURL,
		"model":    cfg.LLM.Model,
	}).Msg("Loaded config")

	return cfg.Validate()
}

func setupLogger(level string, out io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

func newSession() (*session.Session, error) {
	streamer, err := newStreamer(&cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}
	return session.New(streamer, cfg.LLM.Model), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
