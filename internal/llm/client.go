// Package llm wraps the chat-completion API consumed by the dialogue and
// scoring services. Both collaborators are treated as opaque and possibly
// unreliable; callers own the fallback behavior.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/sparringbot/sparring/internal/config"
)

// ErrNoChoices is returned when the API responds without any completion.
var ErrNoChoices = errors.New("no choices returned")

// Request is a single-turn chat completion request.
type Request struct {
	System      string
	User        string
	MaxTokens   int64
	Temperature float64
}

// Client is the minimal completion surface the services need.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// OpenAI implements Client using the OpenAI chat completions API.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI creates an OpenAI-backed client. Returns nil when no API key is
// configured; a nil client makes every caller take its deterministic
// fallback path.
func NewOpenAI(cfg config.OpenAIConfig) *OpenAI {
	if cfg.APIKey == "" {
		return nil
	}
	return &OpenAI{
		client:  openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:   cfg.Model,
		timeout: cfg.RequestTimeout,
	}
}

// Complete performs one chat completion and returns the trimmed message text.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(req.MaxTokens)
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
