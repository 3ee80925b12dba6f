package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/provalab/provagen/internal/genai/prompts"
	"github.com/provalab/provagen/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Generation failure kinds. Transport errors from the underlying client are
// wrapped and can be unwrapped with errors.As against *openai.APIError.
var (
	// ErrNoAPIKey means the client was built without a credential.
	ErrNoAPIKey = errors.New("generation API key is not configured")
	// ErrEmptyPayload means the provider returned no usable text payload.
	ErrEmptyPayload = errors.New("generation response contained no payload")
)

// MalformedError reports a payload that did not parse as the expected JSON array.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed generation payload: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// CountError reports a generated question count that does not match the
// requested distribution total.
type CountError struct {
	Want, Got int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("generator returned %d questions, requested %d", e.Got, e.Want)
}

// Request describes one generation call.
type Request struct {
	Details      model.ExamDetails
	Syllabus     string
	Distribution model.Distribution
}

// Client wraps an OpenAI-compatible API client for question generation.
type Client struct {
	api   *openai.Client
	model string
	lang  string
}

// New creates a new generation client. lang selects the prompt language.
func New(baseURL, apiKey, modelName, lang string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if err := prompts.Load(); err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
		lang:  lang,
	}, nil
}

// Ping verifies the endpoint is reachable and the model is known.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("generation endpoint unreachable: %w", err)
	}
	return nil
}

// Generate sends one request to the provider and returns a validated question
// sequence of exactly req.Distribution.Total() items. It performs no retries;
// the call is safe for the caller to repeat.
func (c *Client) Generate(ctx context.Context, req Request) ([]model.Question, error) {
	prompt, err := prompts.BuildGeneratePrompt(c.lang, prompts.GenerateData{
		Name:       req.Details.Name,
		Type:       string(req.Details.Type),
		Discipline: req.Details.Discipline,
		Syllabus:   req.Syllabus,
		Easy:       req.Distribution.Easy,
		Medium:     req.Distribution.Medium,
		Hard:       req.Distribution.Hard,
		Total:      req.Distribution.Total(),
	})
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("generation API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyPayload
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("generation response", "model", c.model, "bytes", len(raw))
	if raw == "" {
		return nil, ErrEmptyPayload
	}

	drafts, err := parsePayload(raw)
	if err != nil {
		return nil, err
	}

	questions, err := ValidateQuestions(drafts)
	if err != nil {
		return nil, err
	}
	if want := req.Distribution.Total(); len(questions) != want {
		return nil, &CountError{Want: want, Got: len(questions)}
	}
	return questions, nil
}

// parsePayload accepts either a bare JSON array or an object wrapping the
// array under a "questions" key. JSON-object response mode makes some
// providers wrap the array even when asked not to.
func parsePayload(raw string) ([]QuestionDraft, error) {
	var drafts []QuestionDraft
	if err := json.Unmarshal([]byte(raw), &drafts); err == nil {
		return drafts, nil
	}
	var wrapped struct {
		Questions []QuestionDraft `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return nil, &MalformedError{Err: err}
	}
	if wrapped.Questions == nil {
		return nil, &MalformedError{Err: errors.New("no question array found")}
	}
	return wrapped.Questions, nil
}
