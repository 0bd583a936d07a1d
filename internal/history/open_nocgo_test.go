//go:build !cgo

package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SharesStorePerPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history")
	ctx := context.Background()

	s, err := Open(ctx, path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.AddProject(ctx, Project{Name: "todo", Path: "/work/todo", CreatedAt: t0}))
	require.NoError(t, s.RecordRun(ctx, "todo", Run{ID: "run-1", StartedAt: t0, FinishedAt: t0}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, zerolog.Nop())
	require.NoError(t, err)
	p, err := s.GetProject(ctx, "todo")
	require.NoError(t, err)
	require.NotNil(t, p)
	runs, err := s.Runs(ctx, "todo")
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	other, err := Open(ctx, filepath.Join(dir, "other"), zerolog.Nop())
	require.NoError(t, err)
	p, err = other.GetProject(ctx, "todo")
	require.NoError(t, err)
	assert.Nil(t, p)
}
