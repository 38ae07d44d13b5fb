package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentroute/core"
)

func TestSingleSuccessEchoesResult(t *testing.T) {
	report := core.ExecutionReport{Outcomes: []core.StepOutcome{{
		Step:   core.PlanStep{AgentName: "weather", Intent: "get_weather", Input: "weather in Berlin"},
		Result: core.Success(core.Output{Result: "sunny, 22C"}),
	}}}

	got := Synthesizer{}.Single(report)

	assert.Contains(t, got.Answer, "sunny, 22C")
	assert.False(t, got.MultiAgent)
	require.Len(t, got.Used, 1)
	assert.Equal(t, core.AgentUse{Name: "weather", Intent: "get_weather", Status: "success"}, got.Used[0])
}

func TestSingleSuccessIncludesDetails(t *testing.T) {
	report := core.ExecutionReport{Outcomes: []core.StepOutcome{{
		Step:   core.PlanStep{AgentName: "weather", Intent: "get_weather"},
		Result: core.Success(core.Output{Result: "sunny, 22C", Details: "UV index high"}),
	}}}

	got := Synthesizer{}.Single(report)

	assert.Contains(t, got.Answer, "sunny, 22C")
	assert.Contains(t, got.Answer, "UV index high")
}

func TestSingleMultiStepJoinsResults(t *testing.T) {
	report := core.ExecutionReport{Outcomes: []core.StepOutcome{
		{
			Step:   core.PlanStep{AgentName: "tasks", Intent: "list_tasks"},
			Result: core.Success(core.Output{Result: "3 open tasks"}),
		},
		{
			Step:   core.PlanStep{AgentName: "tasks", Intent: "next_deadline"},
			Result: core.Success(core.Output{Result: "report due Friday"}),
		},
	}}

	got := Synthesizer{}.Single(report)

	assert.Contains(t, got.Answer, "3 open tasks")
	assert.Contains(t, got.Answer, "report due Friday")
	assert.False(t, got.MultiAgent)
	assert.Len(t, got.Used, 2)
}

func TestSingleFailureStillCompletes(t *testing.T) {
	report := core.ExecutionReport{Outcomes: []core.StepOutcome{{
		Step:   core.PlanStep{AgentName: "weather", Intent: "get_weather"},
		Result: core.Failed(core.ErrorKindTimeout, "agent weather: no response within 2s"),
	}}}

	got := Synthesizer{}.Single(report)

	assert.Contains(t, got.Answer, "weather")
	assert.Contains(t, got.Answer, "try again")
	assert.False(t, got.MultiAgent)
	require.Len(t, got.Used, 1)
	assert.Equal(t, "error", got.Used[0].Status)
}

func TestDirect(t *testing.T) {
	got := Synthesizer{}.Direct("Hello! How can I help you today?")

	assert.Equal(t, "Hello! How can I help you today?", got.Answer)
	assert.False(t, got.MultiAgent)
	assert.Empty(t, got.Used)
	assert.NotNil(t, got.Used)
}

func TestNoPlan(t *testing.T) {
	got := Synthesizer{}.NoPlan()

	assert.Equal(t, NoPlanMessage, got.Answer)
	assert.Empty(t, got.Used)
}
