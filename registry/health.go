package registry

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentroute/logging"
)

// CheckerOptions configures a health Checker.
type CheckerOptions struct {
	// Timeout bounds each individual health probe.
	Timeout time.Duration
	// Concurrency limits how many probes run at once during a sweep.
	Concurrency int
	// HTTPClient overrides the probe client (tests inject a stub transport).
	HTTPClient *http.Client
	// Logger receives per-probe outcomes.
	Logger logging.Logger
}

// Checker performs best-effort health probes against agents that declare a
// health endpoint and records the advisory flag on the registry. A failed or
// skipped probe never removes an agent; callers still attempt real calls and
// handle failure there.
type Checker struct {
	registry    *Registry
	client      *http.Client
	timeout     time.Duration
	concurrency int
	logger      logging.Logger
}

// NewChecker creates a health checker with optional overrides.
func NewChecker(r *Registry, optFns ...func(o *CheckerOptions)) *Checker {
	opts := CheckerOptions{
		Timeout:     2 * time.Second,
		Concurrency: 8,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Checker{
		registry:    r,
		client:      client,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}
}

// Sweep probes every agent with a health endpoint concurrently and updates the
// advisory flags. It returns once all probes settle; probe failures are
// recorded, not returned.
func (c *Checker) Sweep(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, d := range c.registry.List() {
		if d.HealthEndpoint == "" {
			continue
		}
		g.Go(func() error {
			c.registry.SetHealthy(d.Name, c.probe(ctx, d))
			return nil
		})
	}
	_ = g.Wait()
}

// Run sweeps immediately and then on every interval tick until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	c.Sweep(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

func (c *Checker) probe(ctx context.Context, d Descriptor) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.HealthEndpoint, nil)
	if err != nil {
		c.logger.Warn("health probe request build failed", "agent", d.Name, "error", err)
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("health probe failed", "agent", d.Name, "error", err)
		return false
	}
	defer resp.Body.Close()
	healthy := resp.StatusCode >= 200 && resp.StatusCode < 300
	c.logger.Debug("health probe completed", "agent", d.Name, "status", resp.StatusCode, "healthy", healthy)
	return healthy
}
