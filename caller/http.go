package caller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/logging"
	"github.com/hupe1980/agentroute/registry"
)

// maxResponseBytes caps how much of a worker response is read. Workers return
// short structured payloads; anything beyond this is a contract violation.
const maxResponseBytes = 1 << 20

// Default circuit breaker settings.
const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerOpenFor     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// Options configure the HTTP caller.
type Options struct {
	// HTTPClient overrides the transport. The default uses pooled connections
	// without a client-level timeout; per-call deadlines come from each
	// descriptor.
	HTTPClient *http.Client

	// BreakerMaxFailures is the number of consecutive transport failures per
	// agent before its circuit opens and calls fail fast.
	BreakerMaxFailures uint32
	// BreakerOpenFor is how long an open circuit stays open before a probe.
	BreakerOpenFor time.Duration
	// BreakerInterval is the cyclic period for clearing failure counts while
	// closed.
	BreakerInterval time.Duration
	// DisableBreaker turns circuit breaking off (tests, single-shot tools).
	DisableBreaker bool

	Logger logging.Logger
}

// HTTPCaller posts worker requests to agent endpoints. Each agent gets its own
// circuit breaker so a flapping worker fails fast instead of burning its full
// timeout on every request; breakers count only transport-level failures
// (timeout, unreachable) since a worker that answers with an application error
// is alive.
type HTTPCaller struct {
	client         *http.Client
	logger         logging.Logger
	disableBreaker bool
	breakerCfg     gobreaker.Settings

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[core.WorkerResult]
}

// NewHTTPCaller creates an HTTP caller with optional overrides.
func NewHTTPCaller(optFns ...func(o *Options)) *HTTPCaller {
	opts := Options{
		BreakerMaxFailures: defaultBreakerMaxFailures,
		BreakerOpenFor:     defaultBreakerOpenFor,
		BreakerInterval:    defaultBreakerInterval,
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     120 * time.Second,
			},
		}
	}

	c := &HTTPCaller{
		client:         client,
		logger:         opts.Logger,
		disableBreaker: opts.DisableBreaker,
		breakers:       make(map[string]*gobreaker.CircuitBreaker[core.WorkerResult]),
	}
	maxFailures := opts.BreakerMaxFailures
	c.breakerCfg = gobreaker.Settings{
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    opts.BreakerInterval,
		Timeout:     opts.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return c
}

// Call implements Caller. The exchange runs under the descriptor's timeout and
// through the agent's circuit breaker; every outcome is a WorkerResult.
func (c *HTTPCaller) Call(ctx context.Context, d registry.Descriptor, req core.WorkerRequest) core.WorkerResult {
	start := time.Now()
	var result core.WorkerResult
	if c.disableBreaker {
		result = c.exchange(ctx, d, req)
	} else {
		result = c.callThroughBreaker(ctx, d, req)
	}
	c.logger.Debug("worker call settled",
		"agent", d.Name, "intent", req.Intent, "request_id", req.RequestID,
		"duration", time.Since(start), "status", result.Status())
	return result
}

// transportFailure carries a failure result through the breaker's error return
// so that only transport-level failures count against the circuit.
type transportFailure struct{ result core.WorkerResult }

func (t transportFailure) Error() string { return t.result.Failure.Message }

func (c *HTTPCaller) callThroughBreaker(ctx context.Context, d registry.Descriptor, req core.WorkerRequest) core.WorkerResult {
	result, err := c.breaker(d.Name).Execute(func() (core.WorkerResult, error) {
		r := c.exchange(ctx, d, req)
		if !r.OK() {
			switch r.Failure.Kind {
			case core.ErrorKindTimeout, core.ErrorKindUnreachable:
				return core.WorkerResult{}, transportFailure{result: r}
			}
		}
		return r, nil
	})
	if err == nil {
		return result
	}
	var tf transportFailure
	if errors.As(err, &tf) {
		return tf.result
	}
	// Open circuit or half-open probe limit: fail fast without a network call.
	return core.Failed(core.ErrorKindUnreachable, "agent %s: circuit open: %v", d.Name, err)
}

func (c *HTTPCaller) breaker(agent string) *gobreaker.CircuitBreaker[core.WorkerResult] {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.breakers[agent]
	if !ok {
		cfg := c.breakerCfg
		cfg.Name = "agent:" + agent
		cb = gobreaker.NewCircuitBreaker[core.WorkerResult](cfg)
		c.breakers[agent] = cb
	}
	return cb
}

// exchange performs one HTTP round trip and maps every fault to a failure kind.
func (c *HTTPCaller) exchange(ctx context.Context, d registry.Descriptor, req core.WorkerRequest) core.WorkerResult {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = registry.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return core.Failed(core.ErrorKindBadResponseShape, "agent %s: encode request: %v", d.Name, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Endpoint, bytes.NewReader(body))
	if err != nil {
		return core.Failed(core.ErrorKindUnreachable, "agent %s: build request: %v", d.Name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return c.mapTransportError(ctx, d, timeout, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.mapTransportError(ctx, d, timeout, err)
	}
	if resp.StatusCode != http.StatusOK {
		return core.Failed(core.ErrorKindAgentReportedError, "HTTP %d calling %s", resp.StatusCode, d.Endpoint)
	}

	var result core.WorkerResult
	if err := json.Unmarshal(data, &result); err != nil {
		return core.Failed(core.ErrorKindBadResponseShape, "agent %s: %v", d.Name, err)
	}
	return result
}

func (c *HTTPCaller) mapTransportError(ctx context.Context, d registry.Descriptor, timeout time.Duration, err error) core.WorkerResult {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return core.Failed(core.ErrorKindTimeout, "agent %s: no response within %s", d.Name, timeout)
	}
	return core.Failed(core.ErrorKindUnreachable, "agent %s: %v", d.Name, err)
}

var _ Caller = (*HTTPCaller)(nil)
