// Package openai provides an llm.Client backed by any OpenAI-compatible Chat
// Completions API. The default base URL points at OpenRouter so a single
// OPENROUTER_API_KEY covers the planner, combiner and summarizer; pass a
// different base URL (or none) to talk to the OpenAI API directly.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/llm"
	"github.com/hupe1980/agentroute/logging"
)

// DefaultBaseURL is the OpenRouter Chat Completions endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// DefaultModel balances cost and quality for routing-sized prompts.
const DefaultModel = "google/gemini-2.5-flash-lite"

// Options configure the OpenAI-compatible client adapter.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
	BaseURL     string
	Logger      logging.Logger
}

// Client wraps the Chat Completions API behind the llm.Client interface.
type Client struct {
	client *openai.Client
	opts   Options
}

// NewClient creates a new client using the official SDK.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := []option.RequestOption{option.WithBaseURL(opts.BaseURL)}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)
	return &Client{client: &client, opts: opts}
}

// NewClientFromClient creates a new adapter from an existing SDK client.
func NewClientFromClient(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       DefaultModel,
		Temperature: 0.2,
		MaxTokens:   1024,
		BaseURL:     DefaultBaseURL,
		Logger:      logging.NoOpLogger{},
	}
}

// PlanSteps implements llm.Client.
func (c *Client) PlanSteps(ctx context.Context, query, historySummary string, catalog []llm.AgentOption) ([]llm.Selection, error) {
	raw, err := c.complete(ctx, "plan", llm.PlanSystemPrompt, llm.PlanUserPrompt(query, historySummary, catalog))
	if err != nil {
		return nil, err
	}
	return llm.ParseSelections(raw)
}

// Combine implements llm.Client.
func (c *Client) Combine(ctx context.Context, query, historySummary string, entries []llm.CombineEntry) (string, error) {
	return c.complete(ctx, "combine", llm.CombineSystemPrompt, llm.CombineUserPrompt(query, historySummary, entries))
}

// Summarize implements llm.Client.
func (c *Client) Summarize(ctx context.Context, priorSummary string, turns []core.Turn) (string, error) {
	return c.complete(ctx, "summarize", llm.SummarizeSystemPrompt, llm.SummarizeUserPrompt(priorSummary, turns))
}

// complete issues one non-streaming completion and returns the reply text.
func (c *Client) complete(ctx context.Context, op, system, user string) (string, error) {
	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxTokens),
	})
	if err != nil {
		c.opts.Logger.Warn("chat completion failed", "operation", op, "model", c.opts.Model, "duration", time.Since(start), "error", err)
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api: no choices returned")
	}
	c.opts.Logger.Debug("chat completion ok", "operation", op, "model", c.opts.Model, "duration", time.Since(start))
	return resp.Choices[0].Message.Content, nil
}

var _ llm.Client = (*Client)(nil)
