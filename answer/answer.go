// Package answer builds the final response text for every path that does not
// go through the multi-agent combiner: guardrail short circuits, single-agent
// execution and empty plans.
package answer

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentroute/core"
)

// NoPlanMessage answers queries for which no agent could be selected.
const NoPlanMessage = "I could not determine what you need help with. Could you rephrase your request?"

// Synthesizer turns single-agent reports and direct texts into CombinedAnswer
// values so the orchestrator assembles every terminal state the same way. The
// multi-agent flag is always false on these paths.
type Synthesizer struct{}

// Single renders the answer for a report whose steps all belong to one agent.
// On success the worker results are surfaced directly; when every step failed
// the answer is an apologetic message naming the agent, and the request still
// completes.
func (Synthesizer) Single(report core.ExecutionReport) core.CombinedAnswer {
	answer := core.CombinedAnswer{
		Used: report.Used(),
	}

	successes := report.Successes()
	if len(successes) == 0 {
		agent := "the requested agent"
		if agents := report.DistinctAgents(); len(agents) > 0 {
			agent = agents[0]
		}
		answer.Answer = fmt.Sprintf("I'm sorry, I couldn't get an answer from %s right now. Please try again shortly.", agent)
		return answer
	}

	parts := make([]string, 0, len(successes))
	for _, o := range successes {
		text := o.Result.Output.Result
		if details := o.Result.Output.Details; details != "" {
			text += "\n" + details
		}
		parts = append(parts, text)
	}
	answer.Answer = strings.Join(parts, "\n\n")
	return answer
}

// Direct wraps a guardrail direct answer.
func (Synthesizer) Direct(text string) core.CombinedAnswer {
	return core.CombinedAnswer{Answer: text, Used: []core.AgentUse{}}
}

// Refusal wraps a guardrail refusal. Refusals are terminal user-facing
// answers, not error states.
func (s Synthesizer) Refusal(text string) core.CombinedAnswer {
	return s.Direct(text)
}

// NoPlan answers a query no agent was selected for.
func (Synthesizer) NoPlan() core.CombinedAnswer {
	return core.CombinedAnswer{Answer: NoPlanMessage, Used: []core.AgentUse{}}
}
