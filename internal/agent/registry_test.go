package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticGenerator(text string) Generator {
	return GeneratorFunc(func(context.Context, Request) (string, error) { return text, nil })
}

func TestRegistry_BuildEachProvider(t *testing.T) {
	off := false
	reg := NewRegistry()
	err := reg.Build([]Spec{
		{Name: "pm", Role: RoleProjectManager, Provider: Provider{Type: ProviderA2A, Endpoint: "http://localhost:9100"}},
		{Name: "coder", Role: RoleCoder, Provider: Provider{Type: ProviderCommand, Command: "llm", Timeout: time.Minute}},
		{Name: "reviewer", Role: RoleReviewer, Enabled: &off, Provider: Provider{Type: ProviderCommand, Command: "llm"}},
	})
	require.NoError(t, err)

	pm, ok := reg.Lookup(RoleProjectManager)
	require.True(t, ok)
	assert.IsType(t, &A2AGenerator{}, pm.Generator)

	coder, ok := reg.Lookup(RoleCoder)
	require.True(t, ok)
	assert.IsType(t, &CommandGenerator{}, coder.Generator)

	_, ok = reg.Lookup(RoleReviewer)
	assert.False(t, ok)
	assert.Equal(t, []string{"reviewer"}, reg.Disabled())

	entries := reg.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, RoleCoder, entries[0].Spec.Role)
}

func TestRegistry_BuildErrors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{"unknown provider", Spec{Name: "x", Role: RoleCoder, Provider: Provider{Type: "grpc"}}, `no factory registered for provider "grpc"`},
		{"missing endpoint", Spec{Name: "x", Role: RoleCoder, Provider: Provider{Type: ProviderA2A}}, "needs an endpoint"},
		{"missing command", Spec{Name: "x", Role: RoleCoder, Provider: Provider{Type: ProviderCommand}}, "needs a command"},
		{"unknown role", Spec{Name: "x", Role: "designer", Provider: Provider{Type: ProviderCommand, Command: "llm"}}, "unknown role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Build([]Spec{tt.spec})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistry_DuplicateRole(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Spec{Name: "a", Role: RoleCoder}, staticGenerator("a")))
	err := reg.Register(Spec{Name: "b", Role: RoleCoder}, staticGenerator("b"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `already served by "a"`)
}

func TestRegistry_CustomFactory(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterFactory("static", func(spec Spec) (Generator, error) {
		return staticGenerator("from " + spec.Name), nil
	})
	require.NoError(t, reg.Build([]Spec{{Name: "arch", Role: RoleArchitect, Provider: Provider{Type: "static"}}}))

	e, ok := reg.Lookup(RoleArchitect)
	require.True(t, ok)
	out, err := e.Generator.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "from arch", out)
}
