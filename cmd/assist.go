package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"document-analyzer/internal/models"
)

var (
	assistMode    string
	assistPrompt  string
	assistFile    string
	assistExample bool
)

var assistCmd = &cobra.Command{
	Use:   "assist",
	Short: "Run a code-assistant prompt",
	Long: `Sends a prompt to the model with the system prompt of the chosen mode
(Code Generation, Code Explanation or Code Review) and streams the answer.`,
	Args: cobra.NoArgs,
	RunE: runAssist,
}

func init() {
	assistCmd.Flags().StringVarP(&assistMode, "mode", "m", "Code Generation", "assistant mode")
	assistCmd.Flags().StringVarP(&assistPrompt, "prompt", "p", "", "prompt text")
	assistCmd.Flags().StringVarP(&assistFile, "file", "f", "", "read code from a file and append it to the prompt")
	assistCmd.Flags().BoolVar(&assistExample, "example", false, "use the mode's example prompt")
	rootCmd.AddCommand(assistCmd)
}

func runAssist(cmd *cobra.Command, _ []string) error {
	mode, ok := models.FindMode(cfg.Modes, assistMode)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownMode, assistMode)
	}

	prompt, err := assistUserPrompt(mode)
	if err != nil {
		return err
	}

	sess, err := newSession()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	streaming := isTerminal(out)
	printed := 0
	res := sess.Run(context.Background(), mode.SystemPrompt, prompt, func(text string) {
		if streaming {
			fmt.Fprint(out, text[printed:])
			printed = len(text)
		}
	})

	if !streaming {
		fmt.Fprint(out, res.Text)
	} else if printed < len(res.Text) {
		fmt.Fprint(out, res.Text[printed:])
	}
	fmt.Fprintln(out)

	return res.Err
}

func assistUserPrompt(mode models.Mode) (string, error) {
	if assistExample {
		return mode.Example, nil
	}

	prompt := assistPrompt
	if assistFile != "" {
		code, err := os.ReadFile(assistFile)
		if err != nil {
			return "", fmt.Errorf("read prompt file: %w", err)
		}
		prompt = strings.TrimSpace(prompt + "\n\n" + string(code))
	}
	if strings.TrimSpace(prompt) == "" {
		return "", models.ErrEmptyPrompt
	}
	return prompt, nil
}
