// Package planner turns a user query into an ordered plan of (agent, intent)
// invocations. Trigger-phrase matching against the registry runs first; only
// when it finds nothing does the planner ask the LLM backend, and only when
// that is unavailable or empty does it fall back to a configured default agent.
package planner

import (
	"context"
	"strings"

	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/llm"
	"github.com/hupe1980/agentroute/logging"
	"github.com/hupe1980/agentroute/registry"
)

// Options configure the planner.
type Options struct {
	// DefaultAgent, when set, names the agent planned as a last resort if both
	// the heuristic and LLM passes produce nothing. The agent's first declared
	// intent is used. Empty means the last resort is an empty plan.
	DefaultAgent string

	Logger logging.Logger
}

// Planner selects which agents handle a query.
type Planner struct {
	registry     *registry.Registry
	client       llm.Client
	defaultAgent string
	logger       logging.Logger
}

// New creates a planner over the given registry and LLM client. Pass
// llm.Unavailable{} when no backend is configured; planning then degrades to
// heuristics plus the default agent.
func New(reg *registry.Registry, client llm.Client, optFns ...func(o *Options)) *Planner {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Planner{
		registry:     reg,
		client:       client,
		defaultAgent: opts.DefaultAgent,
		logger:       opts.Logger,
	}
}

// Plan runs the ordered fallback chain: heuristic trigger matching, then an
// LLM planning call, then the default agent. The returned plan may be empty;
// the caller decides how an empty plan is answered. Plan never returns an
// error: every degraded branch falls through to the next.
func (p *Planner) Plan(ctx context.Context, query, historySummary string) core.Plan {
	if plan := p.heuristicPlan(query); !plan.Empty() {
		p.logger.Debug("heuristic plan", "steps", len(plan.Steps), "agents", plan.Agents())
		return plan
	}

	if plan := p.llmPlan(ctx, query, historySummary); !plan.Empty() {
		p.logger.Debug("llm plan", "steps", len(plan.Steps), "agents", plan.Agents())
		return plan
	}

	return p.defaultPlan(query)
}

// heuristicPlan matches the lowercased query against every registered intent's
// trigger phrases. Matches are collected in registration order and deduplicated
// per (agent, intent) pair; a query hitting several agents yields a multi-step
// plan on purpose.
func (p *Planner) heuristicPlan(query string) core.Plan {
	lowered := strings.ToLower(query)

	var plan core.Plan
	seen := make(map[string]bool)

	for _, d := range p.registry.List() {
		for _, intent := range d.Intents {
			key := d.Name + "\x00" + intent.Name
			if seen[key] {
				continue
			}
			for _, trigger := range intent.Triggers {
				if trigger == "" {
					continue
				}
				if strings.Contains(lowered, strings.ToLower(trigger)) {
					seen[key] = true
					plan.Steps = append(plan.Steps, core.PlanStep{
						AgentName: d.Name,
						Intent:    intent.Name,
						Input:     query,
					})
					break
				}
			}
		}
	}
	return plan
}

// llmPlan asks the backend to select steps from the registry catalog.
// Selections naming unregistered agents or undeclared intents are dropped with
// a warning; planner degradation is logged, never surfaced.
func (p *Planner) llmPlan(ctx context.Context, query, historySummary string) core.Plan {
	catalog := p.catalog()
	if len(catalog) == 0 {
		return core.Plan{}
	}

	selections, err := p.client.PlanSteps(ctx, query, historySummary, catalog)
	if err != nil {
		p.logger.Warn("llm planning unavailable, degrading", "error", err)
		return core.Plan{}
	}

	var plan core.Plan
	seen := make(map[string]bool)
	for _, sel := range selections {
		d, err := p.registry.Get(sel.Agent)
		if err != nil {
			p.logger.Warn("llm selected unregistered agent, dropping", "agent", sel.Agent)
			continue
		}
		if !d.HasIntent(sel.Intent) {
			p.logger.Warn("llm selected undeclared intent, dropping", "agent", sel.Agent, "intent", sel.Intent)
			continue
		}
		key := sel.Agent + "\x00" + sel.Intent
		if seen[key] {
			continue
		}
		seen[key] = true

		input := sel.Input
		if input == "" {
			input = query
		}
		plan.Steps = append(plan.Steps, core.PlanStep{
			AgentName: sel.Agent,
			Intent:    sel.Intent,
			Input:     input,
		})
	}
	return plan
}

func (p *Planner) defaultPlan(query string) core.Plan {
	if p.defaultAgent == "" {
		return core.Plan{}
	}
	d, err := p.registry.Get(p.defaultAgent)
	if err != nil {
		p.logger.Warn("default agent not registered", "agent", p.defaultAgent)
		return core.Plan{}
	}
	p.logger.Debug("falling back to default agent", "agent", d.Name)
	return core.Plan{Steps: []core.PlanStep{{
		AgentName: d.Name,
		Intent:    d.Intents[0].Name,
		Input:     query,
	}}}
}

func (p *Planner) catalog() []llm.AgentOption {
	var catalog []llm.AgentOption
	for _, d := range p.registry.List() {
		for _, intent := range d.Intents {
			desc := intent.Description
			if desc == "" {
				desc = d.Description
			}
			catalog = append(catalog, llm.AgentOption{
				Agent:       d.Name,
				Intent:      intent.Name,
				Description: desc,
			})
		}
	}
	return catalog
}
