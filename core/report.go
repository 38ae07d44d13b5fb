package core

// StepOutcome pairs a plan step with the result of its dispatch.
type StepOutcome struct {
	Step   PlanStep
	Result WorkerResult
}

// ExecutionReport collects one outcome per plan step, preserving plan order.
// It lives for the duration of one request and is discarded once the response
// has been assembled.
type ExecutionReport struct {
	Outcomes []StepOutcome
}

// DistinctAgents returns the distinct agent names attempted, first-seen order.
// The combiner runs if and only if this set has cardinality >= 2.
func (r ExecutionReport) DistinctAgents() []string {
	seen := make(map[string]bool, len(r.Outcomes))
	names := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if seen[o.Step.AgentName] {
			continue
		}
		seen[o.Step.AgentName] = true
		names = append(names, o.Step.AgentName)
	}
	return names
}

// Successes returns the outcomes whose worker call succeeded, plan order.
func (r ExecutionReport) Successes() []StepOutcome {
	out := make([]StepOutcome, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Result.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Failures returns the outcomes whose worker call failed, plan order.
func (r ExecutionReport) Failures() []StepOutcome {
	out := make([]StepOutcome, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if !o.Result.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Used renders the per-step (agent, intent, status) list for the response.
func (r ExecutionReport) Used() []AgentUse {
	used := make([]AgentUse, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		used = append(used, AgentUse{Name: o.Step.AgentName, Intent: o.Step.Intent, Status: o.Result.Status()})
	}
	return used
}

// CombinedAnswer is the final synthesis of a request: the answer text, whether
// multiple agents contributed, and the attempted (agent, intent, status) list
// for observability.
type CombinedAnswer struct {
	Answer     string
	MultiAgent bool
	Used       []AgentUse
}
