package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGuard_Protects(t *testing.T) {
	g := DefaultGuard()

	protected := []string{
		"main.py",
		"agents/base_agent.py",
		`agents\__init__.py`,
		"./tools/code_extractor.py",
		"config/settings.yaml",
		".env",
		"deploy/.env",
		"services/api/requirements.txt",
		"nested/tools/mcp_tool_wrapper.py",
		"prod.env",
		"config/staging.env",
		"dev-requirements.txt",
		"calculator_main.py",
		"src/domain.py",
	}
	for _, p := range protected {
		assert.True(t, g.Protects(p), "%s should be protected", p)
	}

	allowed := []string{
		"src/main.go",
		"src/app.py",
		".env.example",
		"config/app.yaml",
		"requirements-dev.txt",
	}
	for _, p := range allowed {
		assert.False(t, g.Protects(p), "%s should be writable", p)
	}
}

func TestDefaultGuard_Entries(t *testing.T) {
	g := DefaultGuard("Makefile")
	entries := g.Entries()
	assert.Len(t, entries, len(DefaultProtected)+1)
	assert.Contains(t, entries, "Makefile")

	// Entries returns a copy.
	entries[0] = "changed"
	assert.Equal(t, "main.py", g.Entries()[0])
}

func TestGuard_Check(t *testing.T) {
	g := NewGuard("go.mod")
	require.NoError(t, g.Check("go.sum"))

	err := g.Check("go.mod")
	require.ErrorIs(t, err, ErrProtectedPath)
	assert.Contains(t, err.Error(), "Skipping protected file: go.mod")
}

func TestGuard_NilProtectsNothing(t *testing.T) {
	var g *Guard
	assert.False(t, g.Protects(".env"))
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"./a/b.py":   "a/b.py",
		`a\b\c.go`:   "a/b/c.go",
		"`x.md`":     "x.md",
		"  y.txt  ":  "y.txt",
		"a//b/../c":  "a/c",
		".":          "",
		"":           "",
		"../up.py":   "../up.py",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePath(in), "NormalizePath(%q)", in)
	}
}
