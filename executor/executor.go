// Package executor dispatches plan steps to worker agents. Steps are
// independent: every step settles into its own WorkerResult and a slow or
// failing agent degrades only its own entry in the report.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agentroute/caller"
	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/logging"
	"github.com/hupe1980/agentroute/registry"
)

// Options configure the executor.
type Options struct {
	Logger logging.Logger
}

// Executor fans plan steps out to worker agents through a Caller and collects
// one outcome per step.
type Executor struct {
	registry *registry.Registry
	caller   caller.Caller
	logger   logging.Logger
}

// New creates an executor over the given registry and caller.
func New(reg *registry.Registry, c caller.Caller, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{
		registry: reg,
		caller:   c,
		logger:   opts.Logger,
	}
}

// Execute dispatches every plan step and blocks until all have settled. Plans
// with two or more steps run concurrently, each call bounded by its agent's
// own timeout inside the caller, so the execution stage costs the maximum of
// the individual timeouts rather than their sum. The report preserves plan
// order with exactly one outcome per step; no fault escapes as an error.
func (e *Executor) Execute(ctx context.Context, plan core.Plan, reqCtx core.RequestContext) core.ExecutionReport {
	outcomes := make([]core.StepOutcome, len(plan.Steps))

	start := time.Now()

	var wg sync.WaitGroup
	for i, step := range plan.Steps {
		wg.Add(1)
		go func(i int, step core.PlanStep) {
			defer wg.Done()
			outcomes[i] = core.StepOutcome{Step: step, Result: e.dispatch(ctx, step, reqCtx)}
		}(i, step)
	}
	wg.Wait()

	report := core.ExecutionReport{Outcomes: outcomes}
	e.logger.Info("plan execution completed",
		"step_count", len(plan.Steps),
		"failure_count", len(report.Failures()),
		"duration", time.Since(start))
	return report
}

// dispatch runs one step. An unregistered agent becomes an unreachable
// failure, never a crash.
func (e *Executor) dispatch(ctx context.Context, step core.PlanStep, reqCtx core.RequestContext) core.WorkerResult {
	d, err := e.registry.Get(step.AgentName)
	if err != nil {
		return core.Failed(core.ErrorKindUnreachable, "agent %s not registered", step.AgentName)
	}

	req := core.WorkerRequest{
		RequestID: uuid.New().String(),
		AgentName: step.AgentName,
		Intent:    step.Intent,
		Input: core.WorkerInput{
			Text:     step.Input,
			Metadata: inputMetadata(step, reqCtx),
		},
		Context: reqCtx,
	}

	start := time.Now()
	result := e.caller.Call(ctx, d, req)

	if result.OK() {
		e.logger.Debug("agent call completed",
			"agent_name", step.AgentName, "intent", step.Intent,
			"request_id", req.RequestID, "duration", time.Since(start))
	} else {
		e.logger.Warn("agent call failed",
			"agent_name", step.AgentName, "intent", step.Intent,
			"request_id", req.RequestID, "duration", time.Since(start),
			"error_kind", string(result.Failure.Kind), "error", result.Failure.Message)
	}

	return result
}

// inputMetadata merges the step metadata with the first file upload so workers
// that accept document input find it next to the text without parsing the
// request context.
func inputMetadata(step core.PlanStep, reqCtx core.RequestContext) map[string]any {
	if len(reqCtx.FileUploads) == 0 {
		return step.Metadata
	}
	meta := make(map[string]any, len(step.Metadata)+1)
	for k, v := range step.Metadata {
		meta[k] = v
	}
	f := reqCtx.FileUploads[0]
	meta["file"] = map[string]any{
		"filename":    f.Filename,
		"mime_type":   f.MimeType,
		"base64_data": f.Base64Data,
	}
	return meta
}
