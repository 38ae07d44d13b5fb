package core

// PlanStep names one (agent, intent) invocation together with the input text
// derived from the user query. Steps are produced by the planner and consumed
// exactly once by the executor.
type PlanStep struct {
	AgentName string         `json:"agent_name"`
	Intent    string         `json:"intent"`
	Input     string         `json:"input"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Plan is an ordered sequence of steps. Order records discovery order and is
// preserved through to response reporting; execution itself is unordered.
type Plan struct {
	Steps []PlanStep `json:"steps"`
}

// Empty reports whether the plan selects no agents.
func (p Plan) Empty() bool { return len(p.Steps) == 0 }

// Agents returns the distinct agent names in the plan, first-seen order.
func (p Plan) Agents() []string {
	seen := make(map[string]bool, len(p.Steps))
	names := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		if seen[s.AgentName] {
			continue
		}
		seen[s.AgentName] = true
		names = append(names, s.AgentName)
	}
	return names
}
