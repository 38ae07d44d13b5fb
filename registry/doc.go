// Package registry maintains the mapping of worker agent names to their
// descriptors: served intents (with heuristic trigger phrases), endpoint
// address, per-call timeout and optional health endpoint.
//
// The registry is read-mostly: many concurrent requests resolve agents while
// registration (startup config load or runtime replacement) takes the write
// path. Health status is advisory; a stale flag never hard-gates dispatch.
package registry
