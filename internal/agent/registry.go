package agent

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dusk-indust/acan/internal/a2a"
)

// Factory builds the generator for one configured agent.
type Factory func(spec Spec) (Generator, error)

// Entry is a ready agent: its configuration and the generator serving it.
type Entry struct {
	Spec      Spec
	Generator Generator
}

// Registry maps roles to ready agents and provider kinds to the factories
// that build them.
type Registry struct {
	mu        sync.RWMutex
	factories map[ProviderKind]Factory
	agents    map[Role]Entry
	disabled  []string
}

// NewRegistry creates a Registry pre-registered with the a2a and command
// provider factories.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[ProviderKind]Factory),
		agents:    make(map[Role]Entry),
	}
	r.factories[ProviderA2A] = func(spec Spec) (Generator, error) {
		if spec.Provider.Endpoint == "" {
			return nil, fmt.Errorf("agent %q: a2a provider needs an endpoint", spec.Name)
		}
		client := a2a.NewHTTPClient(a2a.WithTimeout(timeoutOr(spec.Provider.Timeout)))
		return NewA2AGenerator(client, spec.Provider.Endpoint, spec.Provider.Timeout), nil
	}
	r.factories[ProviderCommand] = func(spec Spec) (Generator, error) {
		if spec.Provider.Command == "" {
			return nil, fmt.Errorf("agent %q: command provider needs a command", spec.Name)
		}
		p := spec.Provider
		return NewCommandGenerator(p.Command, p.Args, p.Env, p.Timeout), nil
	}
	return r
}

// RegisterFactory associates a provider kind with a factory, replacing any
// existing one.
func (r *Registry) RegisterFactory(kind ProviderKind, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Register installs a ready generator for spec.Role.
func (r *Registry) Register(spec Spec, g Generator) error {
	if err := ValidateRole(spec.Role); err != nil {
		return fmt.Errorf("agent %q: %w", spec.Name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.agents[spec.Role]; ok {
		return fmt.Errorf("agent %q: role %q already served by %q", spec.Name, spec.Role, prev.Spec.Name)
	}
	r.agents[spec.Role] = Entry{Spec: spec, Generator: g}
	return nil
}

// Build creates generators for every enabled spec. Disabled agents are
// remembered so Disabled can report them.
func (r *Registry) Build(specs []Spec) error {
	for _, spec := range specs {
		if !spec.IsEnabled() {
			r.mu.Lock()
			r.disabled = append(r.disabled, spec.Name)
			r.mu.Unlock()
			continue
		}

		r.mu.RLock()
		factory, ok := r.factories[spec.Provider.Type]
		r.mu.RUnlock()
		if !ok {
			return fmt.Errorf("agent %q: no factory registered for provider %q", spec.Name, spec.Provider.Type)
		}
		g, err := factory(spec)
		if err != nil {
			return err
		}
		if err := r.Register(spec, g); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the agent serving role.
func (r *Registry) Lookup(role Role) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.agents[role]
	return e, ok
}

// Entries returns every ready agent ordered by role.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.agents))
	for _, e := range r.agents {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Spec.Role < out[j].Spec.Role })
	return out
}

// Disabled returns the names of agents skipped by Build.
func (r *Registry) Disabled() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.disabled...)
}

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}
