// Package core provides the foundational domain types shared by the
// AgentRoute orchestration pipeline. It defines:
//
//   - Query contracts (QueryRequest / QueryResponse) at the orchestration boundary
//   - Worker call contracts (WorkerRequest / WorkerResult) exchanged with agents
//   - Plans (PlanStep sequences produced by the planner)
//   - Execution reports (one outcome per plan step, failures included)
//   - Conversations (bounded per-conversation turn history + running summary)
//
// The package intentionally keeps implementation concerns (transport, LLM
// providers, planning heuristics, concrete stores) out of scope so that every
// pipeline stage can depend on a small, stable vocabulary without cyclic
// imports.
package core
