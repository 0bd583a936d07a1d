package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_CreatesThenModifies(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	kind, err := s.Apply("src/pkg/app.py", "print('hi')")
	require.NoError(t, err)
	assert.Equal(t, Created, kind)

	kind, err = s.Apply("src/pkg/app.py", "print('bye')")
	require.NoError(t, err)
	assert.Equal(t, Modified, kind)

	got, err := s.Read("src/pkg/app.py")
	require.NoError(t, err)
	assert.Equal(t, "print('bye')", got)
}

func TestApply_WritesVerbatim(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)

	content := "  leading\n\ttabs\r\ntrailing  \n\n"
	_, err = s.Apply("notes.txt", content)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestApply_RejectsEscapes(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{"../evil.py", "a/../../evil.py", "/etc/passwd", `..\evil.py`, "."} {
		t.Run(p, func(t *testing.T) {
			_, err := s.Apply(p, "x")
			require.Error(t, err)
		})
	}

	_, err = s.Apply("../evil.py", "x")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestApply_RejectsSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(outside, "target.py"), []byte("orig"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(outside, "target.py"), filepath.Join(root, "file.py")))

	s, err := New(root)
	require.NoError(t, err)

	_, err = s.Apply("link/evil.py", "x")
	require.ErrorIs(t, err, ErrOutsideRoot)
	assert.NoFileExists(t, filepath.Join(outside, "evil.py"))

	_, err = s.Apply("file.py", "x")
	require.ErrorIs(t, err, ErrOutsideRoot)
	data, err := os.ReadFile(filepath.Join(outside, "target.py"))
	require.NoError(t, err)
	assert.Equal(t, "orig", string(data))
}

func TestApply_SymlinkInsideRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0o755))
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	s, err := New(root)
	require.NoError(t, err)

	kind, err := s.Apply("alias/ok.py", "x")
	require.NoError(t, err)
	assert.Equal(t, Created, kind)
	assert.FileExists(t, filepath.Join(root, "real", "ok.py"))
}

func TestApply_RootCreatedOnDemand(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not", "yet")
	s, err := New(root)
	require.NoError(t, err)

	_, err = s.Apply("a.py", "x")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "a.py"))
}

func TestApply_BackslashPath(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)

	_, err = s.Apply(`src\util.go`, "package util")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "src", "util.go"))
}

func TestApply_DirectoryTarget(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	s, err := New(root)
	require.NoError(t, err)

	_, err = s.Apply("pkg", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "modified", Modified.String())
	b, err := Modified.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "modified", string(b))
}
