package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned by Get when no agent with the requested name is
// registered.
var ErrNotFound = errors.New("agent not found")

// Intent declares one category of request an agent claims to handle, together
// with the trigger phrases used by the planner's heuristic pass and a
// description surfaced to the LLM planner.
type Intent struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Triggers    []string `yaml:"triggers" json:"triggers"`
}

// Descriptor identifies one worker agent: its unique name, the intents it
// serves, the HTTP endpoint and per-call timeout. Descriptors are immutable
// once registered; re-registration replaces the entry wholesale.
type Descriptor struct {
	Name           string
	Description    string
	Intents        []Intent
	Endpoint       string
	Timeout        time.Duration
	HealthEndpoint string
}

// HasIntent reports whether the descriptor declares the named intent.
func (d Descriptor) HasIntent(intent string) bool {
	for _, i := range d.Intents {
		if i.Name == intent {
			return true
		}
	}
	return false
}

// Validate checks the fields required for dispatch.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor: name is required")
	}
	if d.Endpoint == "" {
		return fmt.Errorf("descriptor %q: endpoint is required", d.Name)
	}
	if len(d.Intents) == 0 {
		return fmt.Errorf("descriptor %q: at least one intent is required", d.Name)
	}
	for _, i := range d.Intents {
		if i.Name == "" {
			return fmt.Errorf("descriptor %q: intent name is required", d.Name)
		}
	}
	return nil
}

// Registry is a thread-safe mapping of agent name to descriptor. Reads are
// concurrent; writes exclude readers of the entry being replaced. Lookup by
// intent returns descriptors in stable registration order.
//
// Health status is advisory only. The planner and executor must still attempt
// a call and handle failure rather than trusting a possibly stale flag.
type Registry struct {
	mu      sync.RWMutex
	agents  map[string]Descriptor
	order   []string
	healthy map[string]bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		agents:  make(map[string]Descriptor),
		healthy: make(map[string]bool),
	}
}

// Register inserts or replaces the descriptor by name (last-write-wins).
// Replacing keeps the original registration position so FindByIntent ordering
// stays stable.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.agents[d.Name] = d
	return nil
}

// Get returns the descriptor for name or ErrNotFound.
func (r *Registry) Get(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.agents[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return d, nil
}

// FindByIntent returns all descriptors declaring the intent, registration order.
func (r *Registry) FindByIntent(intent string) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Descriptor
	for _, name := range r.order {
		if d := r.agents[name]; d.HasIntent(intent) {
			out = append(out, d)
		}
	}
	return out
}

// List returns every registered descriptor in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.agents[name])
	}
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// SetHealthy records the advisory health flag for an agent.
func (r *Registry) SetHealthy(name string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.healthy[name] = ok
}

// Healthy returns the advisory health flag. Agents never checked report true;
// absence of evidence is not treated as an outage.
func (r *Registry) Healthy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ok, checked := r.healthy[name]
	if !checked {
		return true
	}
	return ok
}
