package agentroute

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentroute/caller"
	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/llm"
	"github.com/hupe1980/agentroute/registry"
)

func registerTestAgents(t *testing.T, o *Orchestrator) {
	t.Helper()
	require.NoError(t, o.RegisterAgent(registry.Descriptor{
		Name:        "email-prioritizer",
		Description: "Ranks inbox messages by urgency",
		Intents: []registry.Intent{{
			Name:        "prioritize_emails",
			Description: "Rank the user's emails by urgency",
			Triggers:    []string{"email", "inbox"},
		}},
		Endpoint: "http://email.local/run",
		Timeout:  time.Second,
	}))
	require.NoError(t, o.RegisterAgent(registry.Descriptor{
		Name:        "deadline-checker",
		Description: "Finds upcoming deadline risks",
		Intents: []registry.Intent{{
			Name:        "check_deadlines",
			Description: "Report deadline risks across projects",
			Triggers:    []string{"deadline", "due date"},
		}},
		Endpoint: "http://deadline.local/run",
		Timeout:  time.Second,
	}))
}

func TestHandleQueryGreetingShortCircuits(t *testing.T) {
	var calls atomic.Int32
	o := New(func(opt *Options) {
		opt.LLM = llm.NewMockClient()
		opt.Caller = caller.Func(func(_ context.Context, _ registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
			calls.Add(1)
			return core.Success(core.Output{Result: "never"})
		})
	})
	registerTestAgents(t, o)

	resp := o.HandleQuery(context.Background(), core.QueryRequest{Query: "hi", Options: core.QueryOptions{Debug: true}})

	assert.NotEmpty(t, resp.Answer)
	assert.Empty(t, resp.UsedAgents)
	assert.NotNil(t, resp.UsedAgents)
	assert.Nil(t, resp.IntermediateResults)
	assert.Empty(t, resp.Error)
	assert.Zero(t, calls.Load())
}

func TestHandleQueryRefusalShortCircuits(t *testing.T) {
	o := New(func(opt *Options) {
		opt.LLM = llm.Unavailable{}
		opt.Caller = caller.Func(func(_ context.Context, _ registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
			t.Fatal("refused queries must not reach any agent")
			return core.WorkerResult{}
		})
	})
	registerTestAgents(t, o)

	resp := o.HandleQuery(context.Background(), core.QueryRequest{Query: "shut up you stupid bot"})

	assert.Contains(t, resp.Answer, "can't help")
	assert.Empty(t, resp.UsedAgents)
	assert.Empty(t, resp.Error)
}

func TestHandleQueryMultiAgentSuccess(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CombinedText = "You have 3 urgent mails and the launch deadline is at risk."

	o := New(func(opt *Options) {
		opt.LLM = mock
		opt.Caller = caller.Func(func(_ context.Context, d registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
			switch d.Name {
			case "email-prioritizer":
				return core.Success(core.Output{Result: "3 urgent mails"})
			case "deadline-checker":
				return core.Success(core.Output{Result: "launch at risk"})
			}
			return core.Failed(core.ErrorKindUnreachable, "unexpected agent %s", d.Name)
		})
	})
	registerTestAgents(t, o)

	resp := o.HandleQuery(context.Background(), core.QueryRequest{
		Query: "prioritize my emails and check deadline risks",
	})

	assert.Equal(t, mock.CombinedText, resp.Answer)
	require.Len(t, resp.UsedAgents, 2)
	assert.Equal(t, "success", resp.UsedAgents[0].Status)
	assert.Equal(t, "success", resp.UsedAgents[1].Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, 1, mock.CombineCalls)
}

func TestHandleQueryPartialFailureStillAnswers(t *testing.T) {
	o := New(func(opt *Options) {
		opt.LLM = llm.Unavailable{}
		opt.Caller = caller.Func(func(_ context.Context, d registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
			if d.Name == "deadline-checker" {
				return core.Failed(core.ErrorKindUnreachable, "agent deadline-checker: connection refused")
			}
			return core.Success(core.Output{Result: "3 urgent mails"})
		})
	})
	registerTestAgents(t, o)

	resp := o.HandleQuery(context.Background(), core.QueryRequest{
		Query:   "prioritize my emails and check deadline risks",
		Options: core.QueryOptions{Debug: true},
	})

	assert.NotEmpty(t, resp.Answer)
	assert.Contains(t, resp.Answer, "3 urgent mails")
	assert.Contains(t, resp.Answer, "deadline-checker")
	require.Len(t, resp.UsedAgents, 2)
	assert.Equal(t, "success", resp.UsedAgents[0].Status)
	assert.Equal(t, "error", resp.UsedAgents[1].Status)
	assert.Empty(t, resp.Error)

	trace := resp.IntermediateResults
	require.Len(t, trace, 2)
	assert.True(t, trace["step_0"].OK())
	require.False(t, trace["step_1"].OK())
	assert.Equal(t, core.ErrorKindUnreachable, trace["step_1"].Failure.Kind)
}

func TestHandleQueryTotalFailure(t *testing.T) {
	o := New(func(opt *Options) {
		opt.LLM = llm.Unavailable{}
		opt.Caller = caller.Func(func(_ context.Context, d registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
			return core.Failed(core.ErrorKindTimeout, "agent %s: no response within 1s", d.Name)
		})
	})
	registerTestAgents(t, o)

	resp := o.HandleQuery(context.Background(), core.QueryRequest{
		Query: "prioritize my emails and check deadline risks",
	})

	assert.NotEmpty(t, resp.Answer)
	assert.NotEmpty(t, resp.Error)
	require.Len(t, resp.UsedAgents, 2)
	assert.Equal(t, "error", resp.UsedAgents[0].Status)
	assert.Equal(t, "error", resp.UsedAgents[1].Status)
}

func TestHandleQuerySingleAgentRoundTrip(t *testing.T) {
	mock := llm.NewMockClient()
	o := New(func(opt *Options) {
		opt.LLM = mock
		opt.Caller = caller.Func(func(_ context.Context, _ registry.Descriptor, req core.WorkerRequest) core.WorkerResult {
			return core.Success(core.Output{Result: "inbox sorted: 3 urgent, 12 routine"})
		})
	})
	registerTestAgents(t, o)

	resp := o.HandleQuery(context.Background(), core.QueryRequest{Query: "sort my inbox"})

	assert.Contains(t, resp.Answer, "inbox sorted: 3 urgent, 12 routine")
	require.Len(t, resp.UsedAgents, 1)
	assert.Equal(t, "email-prioritizer", resp.UsedAgents[0].Name)
	assert.Equal(t, "success", resp.UsedAgents[0].Status)
	// Single-agent path never consults the combiner.
	assert.Zero(t, mock.CombineCalls)
}

func TestHandleQueryNoCredentialsNoMatch(t *testing.T) {
	o := New(func(opt *Options) {
		opt.LLM = llm.Unavailable{}
		opt.Caller = caller.Func(func(_ context.Context, _ registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
			t.Fatal("no agent should be called for an empty plan")
			return core.WorkerResult{}
		})
	})
	registerTestAgents(t, o)

	resp := o.HandleQuery(context.Background(), core.QueryRequest{Query: "tell me something ambiguous"})

	assert.NotEmpty(t, resp.Answer)
	assert.Empty(t, resp.UsedAgents)
	assert.Empty(t, resp.Error)
}

func TestHandleQueryDefaultAgentFallback(t *testing.T) {
	o := New(func(opt *Options) {
		opt.LLM = llm.Unavailable{}
		opt.DefaultAgent = "email-prioritizer"
		opt.Caller = caller.Func(func(_ context.Context, _ registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
			return core.Success(core.Output{Result: "handled by default agent"})
		})
	})
	registerTestAgents(t, o)

	resp := o.HandleQuery(context.Background(), core.QueryRequest{Query: "tell me something ambiguous"})

	assert.Contains(t, resp.Answer, "handled by default agent")
	require.Len(t, resp.UsedAgents, 1)
	assert.Equal(t, "email-prioritizer", resp.UsedAgents[0].Name)
}

func TestHandleQueryDebugTraceOnlyWhenRequested(t *testing.T) {
	o := New(func(opt *Options) {
		opt.LLM = llm.Unavailable{}
		opt.Caller = caller.Func(func(_ context.Context, _ registry.Descriptor, _ core.WorkerRequest) core.WorkerResult {
			return core.Success(core.Output{Result: "ok"})
		})
	})
	registerTestAgents(t, o)

	plain := o.HandleQuery(context.Background(), core.QueryRequest{Query: "sort my inbox"})
	assert.Nil(t, plain.IntermediateResults)

	debug := o.HandleQuery(context.Background(), core.QueryRequest{
		Query:   "sort my inbox",
		Options: core.QueryOptions{Debug: true},
	})
	require.Len(t, debug.IntermediateResults, 1)
	assert.True(t, debug.IntermediateResults["step_0"].OK())
}

func TestHandleQueryHistoryFlowsIntoWorkerContext(t *testing.T) {
	mock := llm.NewMockClient()
	mock.SummaryText = "user cares about project alpha"

	var seenSummaries []string
	o := New(func(opt *Options) {
		opt.LLM = mock
		opt.CompactionWindow = 2
		opt.Caller = caller.Func(func(_ context.Context, _ registry.Descriptor, req core.WorkerRequest) core.WorkerResult {
			seenSummaries = append(seenSummaries, req.Context.HistorySummary)
			return core.Success(core.Output{Result: "ok"})
		})
	})
	registerTestAgents(t, o)

	req := core.QueryRequest{Query: "sort my inbox", ConversationID: "c1"}
	o.HandleQuery(context.Background(), req)
	o.HandleQuery(context.Background(), req)
	// Two turns recorded; compaction ran after the second response.
	require.Equal(t, 1, mock.SummarizeCalls)

	o.HandleQuery(context.Background(), req)

	require.Len(t, seenSummaries, 3)
	assert.Equal(t, "", seenSummaries[0])
	assert.Equal(t, "", seenSummaries[1])
	assert.Equal(t, "user cares about project alpha", seenSummaries[2])
}

func TestHandleQueryGuardrailTurnsAreRecorded(t *testing.T) {
	mock := llm.NewMockClient()
	o := New(func(opt *Options) {
		opt.LLM = mock
	})

	o.HandleQuery(context.Background(), core.QueryRequest{Query: "hello", ConversationID: "c1"})

	assert.Equal(t, 1, o.history.Len("c1"))
}

func TestLLMFromEnvWithoutCredentials(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	client := LLMFromEnv()

	_, err := client.PlanSteps(context.Background(), "q", "", nil)
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}
