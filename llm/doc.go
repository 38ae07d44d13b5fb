// Package llm defines the single capability seam for every LLM-assisted
// branch of the orchestration pipeline: planning (which agents to invoke),
// combining (merging multiple agent outputs) and summarizing (conversation
// history compaction).
//
// One Client implementation is selected at process start:
//
//   - llm/openai wraps any OpenAI-compatible Chat Completions backend
//     (OpenRouter by default)
//   - llm/anthropic wraps the Anthropic Messages API
//   - Unavailable fails every call with ErrUnavailable so all call sites take
//     their deterministic fallbacks; the system is fully operable without
//     credentials
//
// Prompt construction and reply parsing live here so providers stay thin
// transport adapters.
package llm
