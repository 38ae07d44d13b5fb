// Package testutil provides shared helpers for spinning up fake worker agents
// and building registry descriptors in tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/registry"
)

// Descriptor builds a test descriptor with one intent and sensible defaults.
func Descriptor(name, intent string, triggers ...string) registry.Descriptor {
	return registry.Descriptor{
		Name:        name,
		Description: name + " test agent",
		Intents: []registry.Intent{{
			Name:        intent,
			Description: intent + " for testing",
			Triggers:    triggers,
		}},
		Endpoint: "http://" + name + ".invalid/run",
		Timeout:  time.Second,
	}
}

// Worker is a fake worker agent backed by an httptest server.
type Worker struct {
	Server   *httptest.Server
	Requests []core.WorkerRequest
}

// SpawnWorker starts a fake worker that answers every request with the given
// result text. The server shuts down with the test; received requests are
// recorded for assertions.
func SpawnWorker(t *testing.T, result string) *Worker {
	t.Helper()
	return SpawnWorkerFunc(t, func(core.WorkerRequest) core.WorkerResult {
		return core.Success(core.Output{Result: result})
	})
}

// SpawnWorkerFunc starts a fake worker whose responses are computed per
// request by fn.
func SpawnWorkerFunc(t *testing.T, fn func(req core.WorkerRequest) core.WorkerResult) *Worker {
	t.Helper()
	w := &Worker{}
	w.Server = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var req core.WorkerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		w.Requests = append(w.Requests, req)
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(fn(req))
	}))
	t.Cleanup(w.Server.Close)
	return w
}

// Describe returns a descriptor pointing at the fake worker's endpoint.
func (w *Worker) Describe(name, intent string, triggers ...string) registry.Descriptor {
	d := Descriptor(name, intent, triggers...)
	d.Endpoint = w.Server.URL
	return d
}
