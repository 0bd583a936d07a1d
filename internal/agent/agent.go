// Package agent defines the roles of the coding network, the prompts each
// role sends, and the generators that serve them.
package agent

import (
	"context"
	"time"
)

// Role identifies a specialist in the network.
type Role string

const (
	RoleProjectManager Role = "project_manager"
	RoleArchitect      Role = "architect"
	RoleCoder          Role = "coder"
	RoleTester         Role = "tester"
	RoleReviewer       Role = "reviewer"
)

// Request is one prompt sent to a generator.
type Request struct {
	Agent       string
	Role        Role
	System      string
	Prompt      string
	Model       string
	Temperature float64
}

// Generator produces text for a prompt. Implementations own their timeouts.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Spec describes one configured agent.
type Spec struct {
	Name          string   `yaml:"-"`
	Role          Role     `yaml:"role"`
	Goal          string   `yaml:"goal,omitempty"`
	Backstory     string   `yaml:"backstory,omitempty"`
	Model         string   `yaml:"model,omitempty"`
	FallbackModel string   `yaml:"fallback_model,omitempty"`
	Temperature   float64  `yaml:"temperature,omitempty"`
	Enabled       *bool    `yaml:"enabled,omitempty"`
	Tools         []string `yaml:"tools,omitempty"`
	Provider      Provider `yaml:"provider"`
}

// IsEnabled reports whether the agent should be started. Agents are enabled
// unless explicitly disabled.
func (s Spec) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// System returns the system prompt derived from goal and backstory.
func (s Spec) System() string {
	spec, _ := Lookup(s.Role)
	sys := spec.Title
	if s.Goal != "" {
		sys += "\n\nGoal: " + s.Goal
	}
	if s.Backstory != "" {
		sys += "\n\n" + s.Backstory
	}
	return sys
}

// ProviderKind selects how a generator reaches its model.
type ProviderKind string

const (
	ProviderA2A     ProviderKind = "a2a"
	ProviderCommand ProviderKind = "command"
)

// Provider configures the transport behind an agent.
type Provider struct {
	Type     ProviderKind  `yaml:"type"`
	Endpoint string        `yaml:"endpoint,omitempty"`
	Command  string        `yaml:"command,omitempty"`
	Args     []string      `yaml:"args,omitempty"`
	Env      []string      `yaml:"env,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}
