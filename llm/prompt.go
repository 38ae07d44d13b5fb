package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/internal/util"
)

// maxTurnRunes bounds each turn fragment in the summarize prompt so one huge
// answer cannot blow up the summarization window.
const maxTurnRunes = 600

// PlanSystemPrompt instructs the model to act as a router over the agent catalog.
const PlanSystemPrompt = "You are a request router for a multi-agent assistant. " +
	"Given the user's query, the conversation summary and a catalog of available (agent, intent) pairs, " +
	"select every pair that should handle part of the query. " +
	"Reply with a JSON array of objects {\"agent\", \"intent\", \"input\"} and nothing else. " +
	"Use the catalog entries verbatim; reply with [] if nothing fits."

// CombineSystemPrompt instructs the model to merge agent outputs into one answer.
const CombineSystemPrompt = "You are a response combiner. Given the user's query and multiple agent outputs, " +
	"produce a single concise answer that integrates the results and notes which agent each part came from. " +
	"If some agents failed, still use the successful outputs and briefly mention the failure. " +
	"Be direct and avoid repetition."

// SummarizeSystemPrompt instructs the model to maintain the running conversation summary.
const SummarizeSystemPrompt = "Maintain a running summary of a conversation. " +
	"Given the previous summary and the newest turns, produce an updated summary in 2-3 concise sentences. " +
	"Capture user goals, key details and any decisions or constraints. Do not invent new facts."

const planUserTemplate = `User query: {{quote .Query}}

{{if .Summary}}Conversation summary: {{.Summary}}

{{end}}Available agents:
{{.Catalog}}`

// PlanUserPrompt renders the user message of the planning call.
func PlanUserPrompt(query, historySummary string, catalog []AgentOption) string {
	var lines []string
	for _, opt := range catalog {
		lines = append(lines, fmt.Sprintf("- agent %q, intent %q: %s", opt.Agent, opt.Intent, opt.Description))
	}
	rendered, err := util.RenderTemplate(planUserTemplate, map[string]any{
		"Query":   query,
		"Summary": historySummary,
		"Catalog": strings.Join(lines, "\n"),
	})
	if err != nil {
		// The template is a constant; a render failure is a programming error,
		// fall back to a bare prompt rather than aborting the request.
		return fmt.Sprintf("User query: %q\n\nAvailable agents:\n%s", query, strings.Join(lines, "\n"))
	}
	return rendered
}

// CombineUserPrompt renders the user message of the combine call as a JSON
// payload of the query, summary and per-agent outcomes.
func CombineUserPrompt(query, historySummary string, entries []CombineEntry) string {
	payload := map[string]any{
		"user_query":    query,
		"agent_outputs": entries,
	}
	if historySummary != "" {
		payload["history_summary"] = historySummary
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprintf("user_query: %s", query)
	}
	return string(data)
}

// SummarizeUserPrompt renders the user message of the summarize call from the
// prior summary and the not-yet-summarized turns only, never the full
// transcript.
func SummarizeUserPrompt(priorSummary string, turns []core.Turn) string {
	var b strings.Builder
	if priorSummary != "" {
		fmt.Fprintf(&b, "Previous summary: %s\n\n", priorSummary)
	}
	b.WriteString("New turns:\n")
	for _, turn := range turns {
		fmt.Fprintf(&b, "user: %s\nassistant: %s\n",
			util.TruncateRunes(turn.Query, maxTurnRunes),
			util.TruncateRunes(turn.Answer, maxTurnRunes))
	}
	return b.String()
}
