package registry

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout applies to agents whose config omits timeout_ms.
const DefaultTimeout = 8 * time.Second

// agentConfig is the YAML shape of one agent entry.
type agentConfig struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Endpoint       string   `yaml:"endpoint"`
	TimeoutMS      int      `yaml:"timeout_ms"`
	HealthEndpoint string   `yaml:"health_endpoint"`
	Intents        []Intent `yaml:"intents"`
}

// configFile is the YAML shape of a registry config document.
type configFile struct {
	Agents []agentConfig `yaml:"agents"`
}

// Parse decodes a registry config document into descriptors.
func Parse(data []byte) ([]Descriptor, error) {
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("registry config: %w", err)
	}
	descriptors := make([]Descriptor, 0, len(cfg.Agents))
	for _, a := range cfg.Agents {
		timeout := DefaultTimeout
		if a.TimeoutMS > 0 {
			timeout = time.Duration(a.TimeoutMS) * time.Millisecond
		}
		d := Descriptor{
			Name:           a.Name,
			Description:    a.Description,
			Intents:        a.Intents,
			Endpoint:       a.Endpoint,
			Timeout:        timeout,
			HealthEndpoint: a.HealthEndpoint,
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("registry config: %w", err)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// LoadFile reads and parses a registry config file.
func LoadFile(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry config %s: %w", path, err)
	}
	descriptors, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return descriptors, nil
}

// LoadInto parses the file at path and registers every descriptor. Parsing is
// all-or-nothing: on error no agent from the file is registered.
func LoadInto(r *Registry, path string) error {
	descriptors, err := LoadFile(path)
	if err != nil {
		return err
	}
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
