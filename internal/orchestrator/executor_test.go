package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/acan/internal/agent"
	"github.com/dusk-indust/acan/internal/extract"
	"github.com/dusk-indust/acan/internal/sink"
)

// mockDispatcher serves roles from a map.
type mockDispatcher map[agent.Role]agent.Entry

func (m mockDispatcher) Lookup(role agent.Role) (agent.Entry, bool) {
	e, ok := m[role]
	return e, ok
}

// generatorFn builds an entry whose generator calls fn.
func generatorFn(name string, role agent.Role, fn func(ctx context.Context, req agent.Request) (string, error)) agent.Entry {
	return agent.Entry{
		Spec:      agent.Spec{Name: name, Role: role, Model: "test-model"},
		Generator: agent.GeneratorFunc(fn),
	}
}

func fixed(name string, role agent.Role, text string) agent.Entry {
	return generatorFn(name, role, func(context.Context, agent.Request) (string, error) { return text, nil })
}

// mockExtractor returns a canned result and remembers its input.
type mockExtractor struct {
	extractFn func(text string) extract.Result
	seen      []string
}

func (m *mockExtractor) Extract(text string) extract.Result {
	m.seen = append(m.seen, text)
	if m.extractFn == nil {
		return extract.Result{}
	}
	return m.extractFn(text)
}

func diskExtractor(t *testing.T) (*extract.Pipeline, string) {
	t.Helper()
	root := t.TempDir()
	s, err := sink.New(root)
	require.NoError(t, err)
	return extract.New(extract.DefaultGuard(), s), root
}

func seeded(kv ...string) *Context {
	c := NewContext()
	for i := 0; i+1 < len(kv); i += 2 {
		c.Set(kv[i], kv[i+1])
	}
	return c
}

func TestExecutor_ProjectManagerProducesSpecification(t *testing.T) {
	var got agent.Request
	agents := mockDispatcher{
		agent.RoleProjectManager: generatorFn("pm", agent.RoleProjectManager, func(_ context.Context, req agent.Request) (string, error) {
			got = req
			return "# Spec\n\n## Clarifying Questions\n1. Which database?\n", nil
		}),
	}
	e := NewExecutor(agents, nil)

	res, err := e.Execute(context.Background(), Step{Name: "analyze", Role: agent.RoleProjectManager},
		seeded(agent.KeyUserRequirement, "todo app"))
	require.NoError(t, err)

	assert.Equal(t, "pm", got.Agent)
	assert.Equal(t, "test-model", got.Model)
	assert.Contains(t, got.Prompt, "todo app")
	assert.Contains(t, got.System, "Requirements Analyst")

	assert.Equal(t, "analyze", res.Step)
	assert.Equal(t, res.Output, res.Values[agent.KeySpecification])
	assert.Nil(t, res.Extraction)
	assert.Contains(t, res.Annotations, "questions")
}

func TestExecutor_RoleNotConfigured(t *testing.T) {
	e := NewExecutor(mockDispatcher{}, nil)

	_, err := e.Execute(context.Background(), Step{Name: "design", Role: agent.RoleArchitect},
		seeded(agent.KeySpecification, "spec"))
	require.ErrorIs(t, err, ErrRoleNotConfigured)

	_, err = e.Execute(context.Background(), Step{Name: "x", Role: "astrologer"}, NewContext())
	require.ErrorIs(t, err, ErrRoleNotConfigured)
}

func TestExecutor_MissingInputsSkipWithoutCalling(t *testing.T) {
	called := false
	agents := mockDispatcher{
		agent.RoleTester: generatorFn("qa", agent.RoleTester, func(context.Context, agent.Request) (string, error) {
			called = true
			return "tests", nil
		}),
	}

	_, err := NewExecutor(agents, nil).Execute(context.Background(), Step{Name: "test", Role: agent.RoleTester},
		seeded(agent.KeySpecification, "spec"))
	require.ErrorIs(t, err, ErrStepInputMissing)
	assert.Contains(t, err.Error(), "code")
	assert.False(t, called)
}

func TestExecutor_CollaboratorFailure(t *testing.T) {
	boom := errors.New("model overloaded")
	agents := mockDispatcher{
		agent.RoleArchitect: generatorFn("arch", agent.RoleArchitect, func(context.Context, agent.Request) (string, error) {
			return "", boom
		}),
	}

	_, err := NewExecutor(agents, nil).Execute(context.Background(), Step{Name: "design", Role: agent.RoleArchitect},
		seeded(agent.KeySpecification, "spec"))
	require.ErrorIs(t, err, ErrCollaborator)
	require.ErrorIs(t, err, boom)
}

func TestExecutor_BlankOutputIsFailure(t *testing.T) {
	agents := mockDispatcher{agent.RoleArchitect: fixed("arch", agent.RoleArchitect, " \n ")}

	_, err := NewExecutor(agents, nil).Execute(context.Background(), Step{Name: "design", Role: agent.RoleArchitect},
		seeded(agent.KeySpecification, "spec"))
	require.ErrorIs(t, err, ErrCollaborator)
	require.ErrorIs(t, err, agent.ErrEmptyOutput)
}

func TestExecutor_CoderWritesFiles(t *testing.T) {
	p, root := diskExtractor(t)
	out := "Here you go.\n\n#### File: `src/app.py`\n```python\nprint('hi')\n```\n\n#### File: `.env`\n```\nSECRET=1\n```\n"
	agents := mockDispatcher{agent.RoleCoder: fixed("dev", agent.RoleCoder, out)}

	res, err := NewExecutor(agents, p).Execute(context.Background(), Step{Name: "implement", Role: agent.RoleCoder},
		seeded(agent.KeySpecification, "spec"))
	require.NoError(t, err)

	require.NotNil(t, res.Extraction)
	assert.Equal(t, []string{"src/app.py"}, res.Extraction.Created)
	assert.Equal(t, []string{"Skipping protected file: .env"}, res.Extraction.Errors)
	assert.Equal(t, []string{"src/app.py"}, res.Values[ValueFilesCreated])
	assert.Equal(t, out, res.Values[ValueSummary])
	assert.Equal(t, res.Extraction.Summary, res.Values[ValueExtractionSummary])

	data, err := os.ReadFile(filepath.Join(root, "src", "app.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", string(data))
	assert.NoFileExists(t, filepath.Join(root, ".env"))
}

func TestExecutor_CoderWithoutExtractor(t *testing.T) {
	agents := mockDispatcher{agent.RoleCoder: fixed("dev", agent.RoleCoder, "code")}

	_, err := NewExecutor(agents, nil).Execute(context.Background(), Step{Name: "implement", Role: agent.RoleCoder},
		seeded(agent.KeySpecification, "spec"))
	require.ErrorIs(t, err, ErrRoleNotConfigured)
}

func TestExecutor_OnlyCoderExtracts(t *testing.T) {
	x := &mockExtractor{}
	agents := mockDispatcher{
		agent.RoleReviewer: fixed("rev", agent.RoleReviewer, "Looks fine.\nScore: 8/10"),
	}

	res, err := NewExecutor(agents, x).Execute(context.Background(), Step{Name: "review", Role: agent.RoleReviewer},
		seeded(agent.KeySpecification, "spec", agent.KeyCode, "code"))
	require.NoError(t, err)
	assert.Empty(t, x.seen)
	assert.Equal(t, "Looks fine.\nScore: 8/10", res.Values[ValueReviewSummary])
	assert.Equal(t, 8, res.Annotations["score"])
}

func TestExecutor_SuggestedFilesInCoderPrompt(t *testing.T) {
	var prompt string
	agents := mockDispatcher{
		agent.RoleCoder: generatorFn("dev", agent.RoleCoder, func(_ context.Context, req agent.Request) (string, error) {
			prompt = req.Prompt
			return "nothing recognizable", nil
		}),
	}
	x := &mockExtractor{}

	_, err := NewExecutor(agents, x, WithSuggestedFiles(true)).Execute(context.Background(),
		Step{Name: "implement", Role: agent.RoleCoder},
		seeded(agent.KeySpecification, "Put it all in `svc/handler.go`."))
	require.NoError(t, err)
	assert.Contains(t, prompt, "Suggested files")
	assert.Contains(t, prompt, "- svc/handler.go")
	assert.Equal(t, []string{"nothing recognizable"}, x.seen)
}

func TestExecutor_DoesNotWriteContext(t *testing.T) {
	agents := mockDispatcher{agent.RoleArchitect: fixed("arch", agent.RoleArchitect, "layers")}
	c := seeded(agent.KeySpecification, "spec")

	_, err := NewExecutor(agents, nil).Execute(context.Background(), Step{Name: "design", Role: agent.RoleArchitect}, c)
	require.NoError(t, err)
	assert.False(t, c.Has(agent.KeyArchitecture))
}
