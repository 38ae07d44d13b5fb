package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/hupe1980/agentroute/core"
)

// MockClient is a lightweight in-memory Client useful for tests & examples.
// Responses are canned per operation; injected errors take precedence. All
// calls are recorded for assertions.
type MockClient struct {
	mu sync.Mutex

	Selections   []Selection
	PlanErr      error
	CombinedText string
	CombineErr   error
	SummaryText  string
	SummarizeErr error

	PlanCalls      int
	CombineCalls   int
	SummarizeCalls int

	LastPlanQuery      string
	LastCombineEntries []CombineEntry
	LastSummarizeTurns []core.Turn
}

// NewMockClient constructs an empty MockClient; the zero value is also usable.
func NewMockClient() *MockClient { return &MockClient{} }

// PlanSteps implements Client.
func (m *MockClient) PlanSteps(_ context.Context, query, _ string, _ []AgentOption) ([]Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlanCalls++
	m.LastPlanQuery = query
	if m.PlanErr != nil {
		return nil, m.PlanErr
	}
	return m.Selections, nil
}

// Combine implements Client. Without a canned text it joins the successful
// results so pipeline tests get a stable, inspectable answer.
func (m *MockClient) Combine(_ context.Context, _ string, _ string, entries []CombineEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CombineCalls++
	m.LastCombineEntries = entries
	if m.CombineErr != nil {
		return "", m.CombineErr
	}
	if m.CombinedText != "" {
		return m.CombinedText, nil
	}
	var parts []string
	for _, e := range entries {
		if e.Status == "success" {
			parts = append(parts, e.Agent+": "+e.Result)
		}
	}
	return strings.Join(parts, " and "), nil
}

// Summarize implements Client.
func (m *MockClient) Summarize(_ context.Context, priorSummary string, turns []core.Turn) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummarizeCalls++
	m.LastSummarizeTurns = turns
	if m.SummarizeErr != nil {
		return "", m.SummarizeErr
	}
	if m.SummaryText != "" {
		return m.SummaryText, nil
	}
	return priorSummary + " +" + string(rune('0'+len(turns))) + " turns", nil
}

var _ Client = (*MockClient)(nil)
