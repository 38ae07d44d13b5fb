// Package combiner merges the outputs of several agents into one answer. The
// substantive merge is an LLM call; when the backend is unavailable the
// combiner stitches the successful results deterministically instead. Failed
// agents are named in the answer either way rather than silently dropped.
package combiner

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/llm"
	"github.com/hupe1980/agentroute/logging"
)

// Options configure the combiner.
type Options struct {
	Logger logging.Logger
}

// Combiner synthesizes one answer from a multi-agent execution report.
type Combiner struct {
	client llm.Client
	logger logging.Logger
}

// New creates a combiner over the given LLM client. Pass llm.Unavailable{} to
// always take the deterministic join.
func New(client llm.Client, optFns ...func(o *Options)) *Combiner {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Combiner{
		client: client,
		logger: opts.Logger,
	}
}

// Combine merges the report's outcomes into a single answer. The multi-agent
// flag is true regardless of which branch produced the text. Combine never
// returns an error; LLM degradation falls back to the stitched join.
func (c *Combiner) Combine(ctx context.Context, query, historySummary string, report core.ExecutionReport) core.CombinedAnswer {
	answer := core.CombinedAnswer{
		MultiAgent: true,
		Used:       report.Used(),
	}

	if len(report.Successes()) == 0 {
		answer.Answer = totalFailureAnswer(report)
		return answer
	}

	entries := entriesFrom(report)
	text, err := c.client.Combine(ctx, query, historySummary, entries)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			c.logger.Warn("llm combine unavailable, using stitched join", "error", err)
		}
		answer.Answer = stitch(report)
		return answer
	}

	answer.Answer = strings.TrimSpace(text)
	return answer
}

// entriesFrom renders the report for the combine prompt: successes carry their
// result text, failures their message, so the model can mention what failed.
func entriesFrom(report core.ExecutionReport) []llm.CombineEntry {
	entries := make([]llm.CombineEntry, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		entry := llm.CombineEntry{
			Agent:  o.Step.AgentName,
			Intent: o.Step.Intent,
			Status: o.Result.Status(),
		}
		if o.Result.OK() {
			entry.Result = o.Result.Output.Result
		} else {
			entry.Error = o.Result.Failure.Message
		}
		entries = append(entries, entry)
	}
	return entries
}

// stitch is the deterministic fallback: one line per successful agent plus a
// trailing note naming the agents that failed.
func stitch(report core.ExecutionReport) string {
	var lines []string
	for _, o := range report.Successes() {
		lines = append(lines, fmt.Sprintf("%s: %s", o.Step.AgentName, o.Result.Output.Result))
	}
	answer := strings.Join(lines, " | ")

	if failed := failedAgents(report); len(failed) > 0 {
		answer += fmt.Sprintf(" (note: %s did not respond successfully)", strings.Join(failed, ", "))
	}
	return answer
}

func totalFailureAnswer(report core.ExecutionReport) string {
	failed := failedAgents(report)
	return fmt.Sprintf("I tried to consult %s, but none of them responded successfully. Please try again shortly.",
		strings.Join(failed, ", "))
}

func failedAgents(report core.ExecutionReport) []string {
	seen := make(map[string]bool)
	var failed []string
	for _, o := range report.Failures() {
		if seen[o.Step.AgentName] {
			continue
		}
		seen[o.Step.AgentName] = true
		failed = append(failed, o.Step.AgentName)
	}
	return failed
}
