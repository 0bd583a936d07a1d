package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/acan/internal/sink"
)

// mockSink records writes and fails for paths listed in fail.
type mockSink struct {
	writes []string
	fail   map[string]bool
	seen   map[string]bool
}

func (m *mockSink) Apply(path, content string) (sink.Kind, error) {
	if m.fail[path] {
		return sink.Created, errors.New("disk full")
	}
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	m.writes = append(m.writes, path)
	if m.seen[path] {
		return sink.Modified, nil
	}
	m.seen[path] = true
	return sink.Created, nil
}

func newDiskPipeline(t *testing.T) (*Pipeline, string) {
	t.Helper()
	root := t.TempDir()
	s, err := sink.New(root)
	require.NoError(t, err)
	return New(DefaultGuard(), s), root
}

func TestExtract_WriteFileScenario(t *testing.T) {
	p, root := newDiskPipeline(t)

	res := p.Extract(`write_file(file_path="app.py", content="""print('hi')""")`)

	require.Len(t, res.Mutations, 1)
	assert.Equal(t, "app.py", res.Mutations[0].Path)
	assert.Equal(t, "print('hi')", res.Mutations[0].Content)
	assert.Equal(t, sink.Created, res.Mutations[0].Kind)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{"app.py"}, res.Created)

	data, err := os.ReadFile(filepath.Join(root, "app.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", string(data))
}

func TestExtract_ProtectedEnvScenario(t *testing.T) {
	p, root := newDiskPipeline(t)

	res := p.Extract(`write_file(file_path=".env", content="API_KEY=secret")`)

	assert.Empty(t, res.Mutations)
	assert.Empty(t, res.Created)
	assert.Empty(t, res.Modified)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], ".env")
	assert.Equal(t, "Skipping protected file: .env", res.Errors[0])
	assert.NoFileExists(t, filepath.Join(root, ".env"))
}

func TestExtract_ProtectedAcrossStrategies(t *testing.T) {
	ms := &mockSink{}
	p := New(DefaultGuard(), ms)

	text := "write_file(file_path=\"requirements.txt\", content=\"flask\")\n" +
		"```text\n# backend/requirements.txt\nflask\n```\n" +
		"#### File: `agents\\__init__.py`\n```python\n\n```\n"

	res := p.Extract(text)
	assert.Empty(t, ms.writes)
	assert.Empty(t, res.Mutations)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], "requirements.txt")
	assert.Contains(t, res.Errors[1], "backend/requirements.txt")
	assert.Contains(t, res.Errors[2], "agents/__init__.py")
}

func TestExtract_LastPooledOccurrenceWins(t *testing.T) {
	p, root := newDiskPipeline(t)

	// Text order is the reverse of pool order; pool order decides.
	text := "#### File: `app.py`\n```python\nprint('header')\n```\n\n" +
		"```python\n# app.py\nprint('fenced')\n```\n\n" +
		`write_file(file_path="app.py", content="""print('call')""")`

	res := p.Extract(text)
	require.Len(t, res.Mutations, 1)
	assert.Equal(t, StrategyHeader, res.Mutations[0].Strategy)

	data, err := os.ReadFile(filepath.Join(root, "app.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('header')", string(data))
}

func TestExtract_IdempotentContentKindFlips(t *testing.T) {
	p, root := newDiskPipeline(t)
	text := "```go\n// pkg/a.go\npackage pkg\n```\n" +
		`write_file(file_path="b.txt", content="bee")`

	first := p.Extract(text)
	require.Empty(t, first.Errors)
	a1, err := os.ReadFile(filepath.Join(root, "pkg", "a.go"))
	require.NoError(t, err)

	second := p.Extract(text)
	require.Empty(t, second.Errors)
	a2, err := os.ReadFile(filepath.Join(root, "pkg", "a.go"))
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.ElementsMatch(t, []string{"pkg/a.go", "b.txt"}, first.Created)
	assert.Empty(t, first.Modified)
	assert.Empty(t, second.Created)
	assert.ElementsMatch(t, []string{"pkg/a.go", "b.txt"}, second.Modified)
}

func TestExtract_RoundTrip(t *testing.T) {
	p, root := newDiskPipeline(t)
	text := "write_file(file_path=\"q.py\", content=\"\"\"\n  msg = \\\"quoted\\\"\n\"\"\")"

	res := p.Extract(text)
	require.Len(t, res.Mutations, 1)
	assert.Equal(t, `msg = "quoted"`, res.Mutations[0].Content)

	data, err := os.ReadFile(filepath.Join(root, "q.py"))
	require.NoError(t, err)
	assert.Equal(t, res.Mutations[0].Content, string(data))
}

func TestExtract_FaultIsolation(t *testing.T) {
	ms := &mockSink{fail: map[string]bool{"bad.py": true}}
	p := New(DefaultGuard(), ms)

	text := `write_file(file_path="a.py", content="a")
write_file(file_path="bad.py", content="b")
write_file(file_path="c.py", content="c")`

	res := p.Extract(text)
	assert.Equal(t, []string{"a.py", "c.py"}, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "bad.py")
	assert.Contains(t, res.Errors[0], "disk full")
}

func TestExtract_EscapeRejectedAsError(t *testing.T) {
	p, _ := newDiskPipeline(t)
	res := p.Extract(`write_file(file_path="../outside.py", content="x")`)
	assert.Empty(t, res.Mutations)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "outside project root")
}

func TestExtract_InjectedGuard(t *testing.T) {
	ms := &mockSink{}
	p := New(NewGuard("secrets.json"), ms)

	res := p.Extract(`write_file(file_path=".env", content="A=1")
write_file(file_path="conf/secrets.json", content="{}")`)

	assert.Equal(t, []string{".env"}, ms.writes)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "conf/secrets.json")
}

func TestExtract_EmptyPathReported(t *testing.T) {
	ms := &mockSink{}
	p := New(DefaultGuard(), ms)

	res := p.Extract(`write_file(file_path="./", content="x")
write_file(file_path="ok.py", content="y")`)

	assert.Equal(t, []string{"ok.py"}, ms.writes)
	assert.Equal(t, []string{"ok.py"}, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `Skipping declaration with empty path: "./"`, res.Errors[0])
}

func TestExtract_ProtectedDotfilesInBlocks(t *testing.T) {
	p, root := newDiskPipeline(t)

	text := "#### File: `.env`\n```\nSECRET=1\n```\n\n" +
		"```ini\n# deploy/prod.env\nSECRET=2\n```\n\n" +
		"#### File: `.gitignore`\n```\nnode_modules/\n```\n"

	res := p.Extract(text)
	assert.Equal(t, []string{".gitignore"}, res.Created)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "Skipping protected file: deploy/prod.env", res.Errors[0])
	assert.Equal(t, "Skipping protected file: .env", res.Errors[1])
	assert.NoFileExists(t, filepath.Join(root, ".env"))
	assert.NoFileExists(t, filepath.Join(root, "deploy", "prod.env"))
	assert.FileExists(t, filepath.Join(root, ".gitignore"))
}

func TestExtract_NothingRecognized(t *testing.T) {
	p := New(DefaultGuard(), &mockSink{})
	res := p.Extract("I would suggest restructuring the code.")
	assert.True(t, res.Empty())
	assert.Equal(t, "No files were created or modified.", res.Summary)
}

func TestFold(t *testing.T) {
	pool := []Candidate{
		{Path: "./a.py", Content: "1", Strategy: StrategyCall},
		{Path: "b.py", Content: "2", Strategy: StrategyCall},
		{Path: "a.py", Content: "3", Strategy: StrategyFenced},
		{Path: "", Content: "ignored", Strategy: StrategyHeader},
	}
	got := Fold(pool)
	require.Len(t, got, 2)
	assert.Equal(t, Candidate{Path: "a.py", Content: "3", Strategy: StrategyFenced}, got[0])
	assert.Equal(t, "b.py", got[1].Path)
}

func TestSummarize(t *testing.T) {
	got := Summarize(Result{
		Created:  []string{"a.py", "b.py"},
		Modified: []string{"c.py"},
		Errors:   []string{"Skipping protected file: .env"},
	})
	want := "Created 2 file(s):\n  - a.py\n  - b.py\n\nModified 1 file(s):\n  - c.py\n\n" +
		"Encountered 1 error(s):\n  - Skipping protected file: .env"
	assert.Equal(t, want, got)

	got = Summarize(Result{Errors: []string{"boom"}})
	assert.Equal(t, "\nEncountered 1 error(s):\n  - boom\nNo files were created or modified.", got)
}
