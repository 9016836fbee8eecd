package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pavelanni/historia/internal/content"
	"github.com/pavelanni/historia/internal/llm"
)

func draftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Draft a new catalog period with an LLM",
		Long: `Asks an OpenAI-compatible endpoint for questions about a period and prints
a catalog JSON array with that single period. Review the result before adding it
to a catalog file.`,
		RunE: runDraft,
	}
	f := cmd.Flags()
	f.StringP("period", "p", "", "Name of the historical period (required)")
	f.IntP("num-questions", "n", 3, "Number of questions to draft")
	f.Int("num-options", 4, "Options per question")
	f.StringP("lang", "l", "es", "Language of the drafted content")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("period")

	return cmd
}

func runDraft(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	client := llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
	if err := client.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))

	period, err := client.DraftPeriod(cmd.Context(), llm.DraftRequest{
		PeriodName:   v.GetString("period"),
		NumQuestions: v.GetInt("num-questions"),
		NumOptions:   v.GetInt("num-options"),
		Lang:         v.GetString("lang"),
	})
	if err != nil {
		return fmt.Errorf("draft period: %w", err)
	}

	// Same checks as loading a catalog file.
	if _, err := content.New([]content.Period{*period}); err != nil {
		return err
	}
	slog.Info("drafted period", "period", period.Name, "questions", len(period.Level.Questions))

	data, err := json.MarshalIndent([]content.Period{*period}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
