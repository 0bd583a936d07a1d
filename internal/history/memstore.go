package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu       sync.RWMutex
	projects map[string]Project
	runs     map[string][]Run
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		projects: make(map[string]Project),
		runs:     make(map[string][]Run),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddProject stores a project keyed by name.
func (m *MemStore) AddProject(_ context.Context, p Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.Name]; ok {
		return fmt.Errorf("history: %w: %s", ErrProjectExists, p.Name)
	}
	m.projects[p.Name] = p
	return nil
}

// GetProject returns the named project, or nil if not found.
func (m *MemStore) GetProject(_ context.Context, name string) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[name]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListProjects returns all projects sorted by name.
func (m *MemStore) ListProjects(_ context.Context) ([]ProjectSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ProjectSummary, 0, len(m.projects))
	for name, p := range m.projects {
		out = append(out, ProjectSummary{Project: p, Iterations: len(m.runs[name])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RecordRun appends run to the project's history.
func (m *MemStore) RecordRun(_ context.Context, project string, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[project]; !ok {
		return fmt.Errorf("history: %w: %s", ErrUnknownProject, project)
	}
	run.Files = append([]FileRecord(nil), run.Files...)
	m.runs[project] = append(m.runs[project], run)
	return nil
}

// Runs returns the project's runs ordered by start time.
func (m *MemStore) Runs(_ context.Context, project string) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]Run(nil), m.runs[project]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
