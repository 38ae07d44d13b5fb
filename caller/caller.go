// Package caller performs the request/response exchange with worker agents.
// It is the external collaborator boundary for transport: timeouts, connection
// failures, non-success status codes and malformed payloads are all mapped to
// core.WorkerResult failures with a typed error kind. No Go error and no panic
// ever crosses this boundary toward the executor.
package caller

import (
	"context"

	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/registry"
)

// Caller performs one worker call against a descriptor. Implementations must
// honor the descriptor's timeout and convert every fault into a failure
// result.
type Caller interface {
	Call(ctx context.Context, d registry.Descriptor, req core.WorkerRequest) core.WorkerResult
}

// Func adapts a plain function to the Caller interface (tests, fakes).
type Func func(ctx context.Context, d registry.Descriptor, req core.WorkerRequest) core.WorkerResult

// Call implements Caller.
func (f Func) Call(ctx context.Context, d registry.Descriptor, req core.WorkerRequest) core.WorkerResult {
	return f(ctx, d, req)
}
