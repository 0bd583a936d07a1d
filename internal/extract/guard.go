package extract

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrProtectedPath is returned by Guard.Check for paths generated output may
// never overwrite.
var ErrProtectedPath = errors.New("protected path")

// DefaultProtected lists the control files of the agent network itself:
// entry point, agent and tool package initializers, the extraction and
// tool-wrapper modules, configuration, secrets and the dependency manifest.
var DefaultProtected = []string{
	"main.py",
	"agents/base_agent.py",
	"agents/__init__.py",
	"tools/__init__.py",
	"tools/code_extractor.py",
	"tools/simple_tools.py",
	"tools/mcp_tool_wrapper.py",
	"config/agents.yaml",
	"config/models.yaml",
	"config/settings.yaml",
	".env",
	"requirements.txt",
}

// Guard is an immutable set of protected paths. A path is protected when it
// equals an entry or ends with one, with no directory boundary required:
// "prod.env" is caught by ".env" and "calculator_main.py" by "main.py".
type Guard struct {
	entries []string
}

// NewGuard creates a Guard from the given entries. Entries are normalized
// the same way candidate paths are.
func NewGuard(entries ...string) *Guard {
	g := &Guard{}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		n := NormalizePath(e)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		g.entries = append(g.entries, n)
	}
	return g
}

// DefaultGuard returns a Guard over DefaultProtected plus any extra entries.
func DefaultGuard(extra ...string) *Guard {
	all := make([]string, 0, len(DefaultProtected)+len(extra))
	all = append(all, DefaultProtected...)
	all = append(all, extra...)
	return NewGuard(all...)
}

// Entries returns a copy of the protected entries.
func (g *Guard) Entries() []string {
	out := make([]string, len(g.entries))
	copy(out, g.entries)
	return out
}

// Protects reports whether p matches a protected entry.
func (g *Guard) Protects(p string) bool {
	if g == nil {
		return false
	}
	n := NormalizePath(p)
	for _, e := range g.entries {
		if strings.HasSuffix(n, e) {
			return true
		}
	}
	return false
}

// Check returns an error wrapping ErrProtectedPath when p is protected.
func (g *Guard) Check(p string) error {
	if g.Protects(p) {
		return fmt.Errorf("%w: Skipping protected file: %s", ErrProtectedPath, p)
	}
	return nil
}

// NormalizePath converts backslashes to forward slashes and cleans the path.
// Leading "./" segments are removed. An empty or "." path normalizes to "".
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, "`\"'")
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}
