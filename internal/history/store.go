// Package history records projects and the workflow runs made against them,
// so a project can be listed and continued later.
package history

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"
)

// ErrProjectExists is returned when adding a project whose name is taken.
var ErrProjectExists = errors.New("project already exists")

// ErrUnknownProject is returned when recording a run for a missing project.
var ErrUnknownProject = errors.New("unknown project")

// Store is the interface for project history backends.
// Implementations: KuzuStore (cgo builds), MemStore (tests, no-cgo builds).
type Store interface {
	io.Closer

	// InitSchema is called once before any data is inserted.
	InitSchema(ctx context.Context) error

	AddProject(ctx context.Context, p Project) error

	// GetProject returns nil, nil when the project does not exist.
	GetProject(ctx context.Context, name string) (*Project, error)

	// ListProjects returns every project ordered by name.
	ListProjects(ctx context.Context) ([]ProjectSummary, error)

	RecordRun(ctx context.Context, project string, run Run) error

	// Runs returns a project's runs, oldest first.
	Runs(ctx context.Context, project string) ([]Run, error)
}

// Project is a named directory generated files are written under.
type Project struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectSummary is a project with its iteration count.
type ProjectSummary struct {
	Project
	Iterations int `json:"iterations"`
}

// Run is one workflow run (iteration) against a project.
type Run struct {
	ID         string       `json:"id"`
	Workflow   string       `json:"workflow"`
	Input      string       `json:"input"`
	Feedback   string       `json:"feedback,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Completed  int          `json:"completed"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	Files      []FileRecord `json:"files,omitempty"`
}

// FileRecord is a file a run wrote.
type FileRecord struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9._-]+`)

// Slug turns a project name into a directory name.
func Slug(name string) string {
	s := slugUnsafe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	s = strings.Trim(s, "_.")
	if s == "" {
		return "project"
	}
	return s
}
