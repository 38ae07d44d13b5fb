package llm

import (
	"context"
	"errors"

	"github.com/hupe1980/agentroute/core"
)

// ErrUnavailable signals that no LLM backend is configured or the backend
// could not be reached. Every caller of a Client degrades deterministically
// on this error: the planner falls back to its default plan, the combiner to
// a stitched join and the summarizer leaves the previous summary untouched.
var ErrUnavailable = errors.New("llm backend unavailable")

// AgentOption is one catalog entry offered to the planning call: an (agent,
// intent) pair plus the human description the model selects by.
type AgentOption struct {
	Agent       string `json:"agent"`
	Intent      string `json:"intent"`
	Description string `json:"description"`
}

// Selection is one (agent, intent) pair chosen by the planning call. Input
// optionally narrows the text forwarded to the agent; empty means the full
// query.
type Selection struct {
	Agent  string `json:"agent"`
	Intent string `json:"intent"`
	Input  string `json:"input,omitempty"`
}

// CombineEntry is one agent outcome handed to the combine call. Result is set
// on success, Error on failure; the model is asked to mention failed agents
// rather than silently dropping them.
type CombineEntry struct {
	Agent  string `json:"agent"`
	Intent string `json:"intent"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Client is the single capability seam for every LLM-assisted branch of the
// pipeline. Exactly one implementation is selected at startup; when no backend
// credentials are present the Unavailable implementation is used and every
// call site takes its deterministic fallback. This keeps all non-determinism
// behind one interface that tests replace with MockClient.
type Client interface {
	// PlanSteps selects zero or more (agent, intent) pairs for the query.
	PlanSteps(ctx context.Context, query, historySummary string, catalog []AgentOption) ([]Selection, error)
	// Combine merges multiple agent outcomes into one answer.
	Combine(ctx context.Context, query, historySummary string, entries []CombineEntry) (string, error)
	// Summarize folds the new turns into the prior summary.
	Summarize(ctx context.Context, priorSummary string, turns []core.Turn) (string, error)
}

// Unavailable is the Client used when no backend is configured. All operations
// fail fast with ErrUnavailable so callers exercise their fallbacks.
type Unavailable struct{}

// PlanSteps implements Client.
func (Unavailable) PlanSteps(context.Context, string, string, []AgentOption) ([]Selection, error) {
	return nil, ErrUnavailable
}

// Combine implements Client.
func (Unavailable) Combine(context.Context, string, string, []CombineEntry) (string, error) {
	return "", ErrUnavailable
}

// Summarize implements Client.
func (Unavailable) Summarize(context.Context, string, []core.Turn) (string, error) {
	return "", ErrUnavailable
}

var _ Client = Unavailable{}
