// Package anthropic provides an llm.Client backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/llm"
	"github.com/hupe1980/agentroute/logging"
)

// Options configure the Anthropic client adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	Logger      logging.Logger
}

// Client wraps the Anthropic Messages API behind the llm.Client interface.
type Client struct {
	client *anthropic.Client
	opts   Options
}

// NewClient creates a new client using the official SDK.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Client{client: &client, opts: opts}
}

// NewClientFromClient creates a new adapter from an existing SDK client.
func NewClientFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Client {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Haiku20241022,
		Temperature: 0.2,
		MaxTokens:   1024,
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

// complete issues one non-streaming message and returns the concatenated text
// blocks of the reply.
func (c *Client) complete(ctx context.Context, op, system, user string) (string, error) {
	start := time.Now()
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		c.opts.Logger.Warn("message call failed", "operation", op, "model", c.opts.Model, "duration", time.Since(start), "error", err)
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("anthropic api: empty reply")
	}
	c.opts.Logger.Debug("message call ok", "operation", op, "model", c.opts.Model, "duration", time.Since(start))
	return text, nil
}

var _ llm.Client = (*Client)(nil)
