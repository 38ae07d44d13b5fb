// Package agentroute provides a high-level façade over the request
// orchestration pipeline: guardrail classification, plan selection, concurrent
// execution against worker agents, result combination and bounded conversation
// history. Most applications interact with this package by:
//  1. Creating an Orchestrator via New() (optionally overriding the registry,
//     caller, LLM backend or history store)
//  2. Registering one or more agent descriptors (RegisterAgent / LoadAgents)
//  3. Handling queries (HandleQuery)
//
// All defaults are safe without LLM credentials: planning degrades to trigger
// heuristics, combination to a deterministic join and history compaction is
// skipped. Production deployments typically configure a backend via the
// environment (see LLMFromEnv) and supply a structured logger.
package agentroute

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hupe1980/agentroute/answer"
	"github.com/hupe1980/agentroute/caller"
	"github.com/hupe1980/agentroute/combiner"
	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/executor"
	"github.com/hupe1980/agentroute/guardrail"
	"github.com/hupe1980/agentroute/history"
	"github.com/hupe1980/agentroute/llm"
	llmanthropic "github.com/hupe1980/agentroute/llm/anthropic"
	llmopenai "github.com/hupe1980/agentroute/llm/openai"
	"github.com/hupe1980/agentroute/logging"
	"github.com/hupe1980/agentroute/planner"
	"github.com/hupe1980/agentroute/registry"
)

// Options configures the Orchestrator.
type Options struct {
	// Registry holds the worker agent descriptors. Defaults to an empty
	// registry; agents can also be added later via RegisterAgent.
	Registry *registry.Registry

	// Caller performs the worker exchanges. Defaults to the HTTP caller with
	// per-agent circuit breaking.
	Caller caller.Caller

	// LLM is the backend for planning, combination and summarization.
	// Defaults to LLMFromEnv(), which returns llm.Unavailable{} when no
	// credentials are configured.
	LLM llm.Client

	// Guardrail classifies queries before planning. Defaults to the built-in
	// rules (greeting, date/time, abusive input).
	Guardrail *guardrail.Classifier

	// History stores conversation state. Defaults to an in-memory store
	// summarizing through LLM.
	History *history.Store

	// DefaultAgent, when set, is planned as a last resort for queries nothing
	// else matches.
	DefaultAgent string

	// CompactionWindow is the uncompacted-turn threshold for history
	// compaction. Zero keeps the history default.
	CompactionWindow int

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Orchestrator is the high-level façade aggregating the pipeline stages.
type Orchestrator struct {
	opts      Options
	registry  *registry.Registry
	guardrail *guardrail.Classifier
	planner   *planner.Planner
	executor  *executor.Executor
	combiner  *combiner.Combiner
	answerer  answer.Synthesizer
	history   *history.Store
	logger    logging.Logger
}

// New creates an Orchestrator with optional overrides. Any unset collaborator
// is initialized with its default implementation.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registry == nil {
		opts.Registry = registry.New()
	}
	if opts.LLM == nil {
		opts.LLM = LLMFromEnv()
	}
	if opts.Caller == nil {
		opts.Caller = caller.NewHTTPCaller(func(o *caller.Options) {
			o.Logger = opts.Logger
		})
	}
	if opts.Guardrail == nil {
		opts.Guardrail = guardrail.New()
	}
	if opts.History == nil {
		opts.History = history.NewStore(opts.LLM, func(o *history.Options) {
			if opts.CompactionWindow > 0 {
				o.Window = opts.CompactionWindow
			}
			o.Logger = opts.Logger
		})
	}

	return &Orchestrator{
		opts:      opts,
		registry:  opts.Registry,
		guardrail: opts.Guardrail,
		planner: planner.New(opts.Registry, opts.LLM, func(o *planner.Options) {
			o.DefaultAgent = opts.DefaultAgent
			o.Logger = opts.Logger
		}),
		executor: executor.New(opts.Registry, opts.Caller, func(o *executor.Options) {
			o.Logger = opts.Logger
		}),
		combiner: combiner.New(opts.LLM, func(o *combiner.Options) {
			o.Logger = opts.Logger
		}),
		history: opts.History,
		logger:  opts.Logger,
	}
}

// RegisterAgent adds or replaces a worker agent descriptor.
func (o *Orchestrator) RegisterAgent(d registry.Descriptor) error {
	return o.registry.Register(d)
}

// LoadAgents registers every descriptor from a YAML config file.
func (o *Orchestrator) LoadAgents(path string) error {
	return registry.LoadInto(o.registry, path)
}

// Registry exposes the underlying agent registry.
func (o *Orchestrator) Registry() *registry.Registry { return o.registry }

// HandleQuery runs one request through the pipeline and always produces a
// response: every component fault is converted to data inside the response
// rather than escaping as an error.
func (o *Orchestrator) HandleQuery(ctx context.Context, req core.QueryRequest) core.QueryResponse {
	outcome := o.guardrail.Classify(req.Query)
	if outcome.Kind != guardrail.Continue {
		o.logger.Debug("guardrail short circuit", "rule", outcome.Rule, "conversation_id", req.ConversationID)
		combined := o.answerer.Direct(outcome.Answer)
		if outcome.Kind == guardrail.Refuse {
			combined = o.answerer.Refusal(outcome.Answer)
		}
		resp := o.respond(combined, nil, "")
		o.finishTurn(ctx, req, resp)
		return resp
	}

	summary := o.history.GetContext(req.ConversationID)

	plan := o.planner.Plan(ctx, req.Query, summary)
	if plan.Empty() {
		resp := o.respond(o.answerer.NoPlan(), nil, "")
		o.finishTurn(ctx, req, resp)
		return resp
	}

	report := o.executor.Execute(ctx, plan, o.requestContext(req, summary))

	var combined core.CombinedAnswer
	if len(report.DistinctAgents()) >= 2 {
		combined = o.combiner.Combine(ctx, req.Query, summary, report)
	} else {
		combined = o.answerer.Single(report)
	}

	var errText string
	if len(report.Successes()) == 0 {
		errText = totalFailureError(report)
	}

	var trace map[string]core.WorkerResult
	if req.Options.Debug {
		trace = stepTrace(report)
	}

	resp := o.respond(combined, trace, errText)
	o.finishTurn(ctx, req, resp)
	return resp
}

func (o *Orchestrator) respond(combined core.CombinedAnswer, trace map[string]core.WorkerResult, errText string) core.QueryResponse {
	used := combined.Used
	if used == nil {
		used = []core.AgentUse{}
	}
	return core.QueryResponse{
		Answer:              combined.Answer,
		UsedAgents:          used,
		IntermediateResults: trace,
		Error:               errText,
	}
}

// finishTurn records the completed exchange and runs compaction when enough
// turns have accumulated. Conversations without an id are not tracked.
func (o *Orchestrator) finishTurn(ctx context.Context, req core.QueryRequest, resp core.QueryResponse) {
	if req.ConversationID == "" {
		return
	}
	o.history.RecordTurn(req.ConversationID, req.Query, resp.Answer)
	o.history.MaybeCompact(ctx, req.ConversationID)
}

func (o *Orchestrator) requestContext(req core.QueryRequest, summary string) core.RequestContext {
	return core.RequestContext{
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		Timestamp:      time.Now().UTC(),
		HistorySummary: summary,
		FileUploads:    req.FileUploads,
	}
}

// stepTrace renders the debug trace: the full worker result per plan step,
// keyed step_0 through step_N in plan order.
func stepTrace(report core.ExecutionReport) map[string]core.WorkerResult {
	trace := make(map[string]core.WorkerResult, len(report.Outcomes))
	for i, o := range report.Outcomes {
		trace[fmt.Sprintf("step_%d", i)] = o.Result
	}
	return trace
}

func totalFailureError(report core.ExecutionReport) string {
	failures := report.Failures()
	if len(failures) == 0 {
		return ""
	}
	return fmt.Sprintf("all %d planned agent calls failed", len(failures))
}

// LLMFromEnv selects the LLM backend from the environment. OPENROUTER_API_KEY
// takes precedence and talks to OpenRouter through the OpenAI-compatible API;
// OPENAI_API_KEY selects the OpenAI backend directly and ANTHROPIC_API_KEY the
// Anthropic backend. OPENROUTER_MODEL overrides the model name for the
// OpenRouter path. Without any credential the unavailable client is returned
// and every pipeline stage takes its deterministic fallback.
func LLMFromEnv() llm.Client {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		return llmopenai.NewClient(func(o *llmopenai.Options) {
			o.APIKey = key
			if model := os.Getenv("OPENROUTER_MODEL"); model != "" {
				o.Model = model
			}
		})
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return llmopenai.NewClient(func(o *llmopenai.Options) {
			o.APIKey = key
			o.BaseURL = "https://api.openai.com/v1"
			o.Model = "gpt-4o-mini"
		})
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return llmanthropic.NewClient(func(o *llmanthropic.Options) {
			o.APIKey = key
		})
	}
	return llm.Unavailable{}
}
