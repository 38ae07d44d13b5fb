package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentroute/caller"
	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/registry"
)

func newTestRegistry(t *testing.T, names ...string) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, name := range names {
		require.NoError(t, reg.Register(registry.Descriptor{
			Name:     name,
			Intents:  []registry.Intent{{Name: "do_" + name}},
			Endpoint: "http://" + name + ".local/run",
			Timeout:  time.Second,
		}))
	}
	return reg
}

func planFor(names ...string) core.Plan {
	var plan core.Plan
	for _, name := range names {
		plan.Steps = append(plan.Steps, core.PlanStep{AgentName: name, Intent: "do_" + name, Input: "task"})
	}
	return plan
}

func TestExecuteCollectsOutcomeInPlanOrder(t *testing.T) {
	reg := newTestRegistry(t, "alpha", "beta")
	c := caller.Func(func(_ context.Context, d registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
		return core.Success(core.Output{Result: "done by " + d.Name})
	})

	report := New(reg, c).Execute(context.Background(), planFor("alpha", "beta"), core.RequestContext{})

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "alpha", report.Outcomes[0].Step.AgentName)
	assert.Equal(t, "done by alpha", report.Outcomes[0].Result.Output.Result)
	assert.Equal(t, "beta", report.Outcomes[1].Step.AgentName)
	assert.Equal(t, "done by beta", report.Outcomes[1].Result.Output.Result)
	assert.Equal(t, []string{"alpha", "beta"}, report.DistinctAgents())
}

func TestExecuteBuildsFreshWorkerRequests(t *testing.T) {
	reg := newTestRegistry(t, "alpha", "beta")

	var mu sync.Mutex
	requestIDs := make(map[string]bool)
	c := caller.Func(func(_ context.Context, _ registry.Descriptor, req core.WorkerRequest) core.WorkerResult {
		mu.Lock()
		requestIDs[req.RequestID] = true
		mu.Unlock()
		return core.Success(core.Output{Result: "ok"})
	})

	reqCtx := core.RequestContext{UserID: "u1", ConversationID: "c1", HistorySummary: "prior context"}
	New(reg, c).Execute(context.Background(), planFor("alpha", "beta"), reqCtx)

	// Each step carries its own request id.
	assert.Len(t, requestIDs, 2)
}

func TestExecuteForwardsContext(t *testing.T) {
	reg := newTestRegistry(t, "alpha")

	var got core.WorkerRequest
	c := caller.Func(func(_ context.Context, _ registry.Descriptor, req core.WorkerRequest) core.WorkerResult {
		got = req
		return core.Success(core.Output{Result: "ok"})
	})

	reqCtx := core.RequestContext{UserID: "u1", ConversationID: "c1", HistorySummary: "prior context"}
	New(reg, c).Execute(context.Background(), planFor("alpha"), reqCtx)

	assert.Equal(t, "alpha", got.AgentName)
	assert.Equal(t, "do_alpha", got.Intent)
	assert.Equal(t, "task", got.Input.Text)
	assert.Equal(t, "u1", got.Context.UserID)
	assert.Equal(t, "prior context", got.Context.HistorySummary)
	assert.NotEmpty(t, got.RequestID)
}

func TestExecuteForwardsFileUploadMetadata(t *testing.T) {
	reg := newTestRegistry(t, "alpha")

	var got core.WorkerRequest
	c := caller.Func(func(_ context.Context, _ registry.Descriptor, req core.WorkerRequest) core.WorkerResult {
		got = req
		return core.Success(core.Output{Result: "ok"})
	})

	reqCtx := core.RequestContext{
		FileUploads: []core.FileUpload{{Filename: "report.pdf", MimeType: "application/pdf", Base64Data: "aGVsbG8="}},
	}
	New(reg, c).Execute(context.Background(), planFor("alpha"), reqCtx)

	file, ok := got.Input.Metadata["file"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "report.pdf", file["filename"])
	assert.Equal(t, "application/pdf", file["mime_type"])
}

func TestExecuteUnregisteredAgentBecomesFailure(t *testing.T) {
	reg := newTestRegistry(t, "alpha")
	c := caller.Func(func(_ context.Context, _ registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
		return core.Success(core.Output{Result: "ok"})
	})

	plan := core.Plan{Steps: []core.PlanStep{
		{AgentName: "alpha", Intent: "do_alpha", Input: "task"},
		{AgentName: "ghost", Intent: "haunt", Input: "task"},
	}}
	report := New(reg, c).Execute(context.Background(), plan, core.RequestContext{})

	require.Len(t, report.Outcomes, 2)
	assert.True(t, report.Outcomes[0].Result.OK())
	require.False(t, report.Outcomes[1].Result.OK())
	assert.Equal(t, core.ErrorKindUnreachable, report.Outcomes[1].Result.Failure.Kind)
	assert.Contains(t, report.Outcomes[1].Result.Failure.Message, "ghost")
}

func TestExecuteStepsRunConcurrently(t *testing.T) {
	reg := newTestRegistry(t, "alpha", "beta", "gamma")
	c := caller.Func(func(_ context.Context, _ registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
		time.Sleep(100 * time.Millisecond)
		return core.Success(core.Output{Result: "ok"})
	})

	start := time.Now()
	report := New(reg, c).Execute(context.Background(), planFor("alpha", "beta", "gamma"), core.RequestContext{})
	elapsed := time.Since(start)

	require.Len(t, report.Successes(), 3)
	// Sequential dispatch would take at least 300ms.
	assert.Less(t, elapsed, 250*time.Millisecond)
}

func TestExecuteSlowStepDoesNotAbortOthers(t *testing.T) {
	reg := newTestRegistry(t, "fast", "slow")
	c := caller.Func(func(_ context.Context, d registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
		if d.Name == "slow" {
			time.Sleep(50 * time.Millisecond)
			return core.Failed(core.ErrorKindTimeout, "agent slow: no response within 50ms")
		}
		return core.Success(core.Output{Result: "quick"})
	})

	report := New(reg, c).Execute(context.Background(), planFor("fast", "slow"), core.RequestContext{})

	require.Len(t, report.Outcomes, 2)
	assert.True(t, report.Outcomes[0].Result.OK())
	require.False(t, report.Outcomes[1].Result.OK())
	assert.Equal(t, core.ErrorKindTimeout, report.Outcomes[1].Result.Failure.Kind)
	assert.Len(t, report.Successes(), 1)
	assert.Len(t, report.Failures(), 1)
}

func TestExecuteEmptyPlan(t *testing.T) {
	reg := newTestRegistry(t)
	c := caller.Func(func(_ context.Context, _ registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
		t.Fatal("caller must not be invoked for an empty plan")
		return core.WorkerResult{}
	})

	report := New(reg, c).Execute(context.Background(), core.Plan{}, core.RequestContext{})

	assert.Empty(t, report.Outcomes)
}
