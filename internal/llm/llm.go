// Package llm drafts new catalog content with an OpenAI-compatible chat model.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/historia/internal/content"
)

// ErrNoUsableQuestions is returned when every drafted question fails validation.
var ErrNoUsableQuestions = errors.New("draft has no usable questions")

// DraftRequest describes the period to draft.
type DraftRequest struct {
	PeriodName   string
	NumQuestions int
	NumOptions   int
	Lang         string // language of the generated text, e.g. "es"
}

// draftResponse is the JSON object the model is asked to return.
type draftResponse struct {
	Description string             `json:"description"`
	LevelName   string             `json:"level_name"`
	Questions   []content.Question `json:"questions"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping checks that the endpoint answers by listing its models.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// DraftPeriod asks the model for a new period with its level and questions. Questions
// that break the catalog rules are dropped; the rest are returned as a Period.
func (c *Client) DraftPeriod(ctx context.Context, req DraftRequest) (*content.Period, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildDraftSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: req.PeriodName},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)
	return parseDraft(req.PeriodName, raw)
}

func parseDraft(periodName, raw string) (*content.Period, error) {
	var dr draftResponse
	if err := json.Unmarshal([]byte(raw), &dr); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}

	p := &content.Period{
		Name:        periodName,
		Description: strings.TrimSpace(dr.Description),
		Level:       content.Level{Name: strings.TrimSpace(dr.LevelName)},
	}
	if p.Level.Name == "" {
		p.Level.Name = periodName
	}
	for i, q := range dr.Questions {
		if err := content.ValidateQuestion(q); err != nil {
			slog.Warn("dropping drafted question", "index", i, "error", err)
			continue
		}
		p.Level.Questions = append(p.Level.Questions, q)
	}
	if len(p.Level.Questions) == 0 {
		return nil, ErrNoUsableQuestions
	}
	return p, nil
}

func buildDraftSystemPrompt(req DraftRequest) string {
	n := req.NumQuestions
	if n <= 0 {
		n = 3
	}
	opts := req.NumOptions
	if opts < 2 {
		opts = 4
	}
	lang := req.Lang
	if lang == "" {
		lang = "es"
	}

	var sb strings.Builder
	sb.WriteString("You write multiple-choice history quiz content for students.\n")
	sb.WriteString("The user message is the name of a historical period.\n\n")
	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString(fmt.Sprintf("- Write exactly %d questions about that period, in the language with code %q.\n", n, lang))
	sb.WriteString(fmt.Sprintf("- Each question has exactly %d distinct options.\n", opts))
	sb.WriteString("- The answer field must repeat one of the options verbatim.\n")
	sb.WriteString("- The feedback is one short sentence explaining the correct answer.\n")
	sb.WriteString("- Also write a one-line description of the period and a short level name.\n")
	sb.WriteString("\nRespond ONLY with a JSON object:\n")
	sb.WriteString(`{"description": "<period description>", "level_name": "<level name>", "questions": [{"prompt": "<question>", "options": ["<option>", ...], "answer": "<correct option>", "feedback": "<explanation>"}]}`)
	sb.WriteString("\n")
	return sb.String()
}
