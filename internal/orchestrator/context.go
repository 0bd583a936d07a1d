package orchestrator

import (
	"fmt"
	"sort"
	"strings"
)

// KeyWorkflowResults holds the StepResult of every completed step, by name.
const KeyWorkflowResults = "workflow_results"

// Context is the key/value state shared by the steps of one run. Writes are
// last-write-wins. A Context belongs to a single run and is not safe for
// concurrent use.
type Context struct {
	values map[string]any
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{values: map[string]any{
		KeyWorkflowResults: map[string]*StepResult{},
	}}
}

// Set stores v under key, replacing any previous value.
func (c *Context) Set(key string, v any) {
	c.values[key] = v
}

// Get returns the value under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the value under key rendered as text. Missing keys
// render as "".
func (c *Context) GetString(key string) string {
	v, ok := c.values[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Has reports whether key holds a non-blank value.
func (c *Context) Has(key string) bool {
	return strings.TrimSpace(c.GetString(key)) != ""
}

// Missing returns the keys from keys that Has rejects.
func (c *Context) Missing(keys ...string) []string {
	var out []string
	for _, k := range keys {
		if !c.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Keys returns the stored keys in sorted order.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Record stores res under workflow_results[step].
func (c *Context) Record(step string, res *StepResult) {
	c.Results()[step] = res
}

// Results returns the completed step results keyed by step name.
func (c *Context) Results() map[string]*StepResult {
	if m, ok := c.values[KeyWorkflowResults].(map[string]*StepResult); ok {
		return m
	}
	m := map[string]*StepResult{}
	c.values[KeyWorkflowResults] = m
	return m
}

// Snapshot returns a shallow copy of the stored values.
func (c *Context) Snapshot() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
