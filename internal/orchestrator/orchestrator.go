// Package orchestrator runs workflows: ordered steps, each served by the
// agent for its role, sharing one context per run.
package orchestrator

import (
	"context"
	"errors"

	"github.com/dusk-indust/acan/internal/agent"
	"github.com/dusk-indust/acan/internal/extract"
)

// Errors classifying why a step did not complete.
var (
	// ErrWorkflowNotFound is returned when a named workflow is not defined.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrRoleNotConfigured means no agent serves the step's role.
	ErrRoleNotConfigured = errors.New("role not configured")

	// ErrStepInputMissing means a context key the role requires is absent.
	ErrStepInputMissing = errors.New("step input missing")

	// ErrCollaborator wraps generator failures.
	ErrCollaborator = errors.New("collaborator failed")
)

// Step is one named unit of work bound to a role.
type Step struct {
	Name string     `yaml:"name" json:"name"`
	Role agent.Role `yaml:"role" json:"role"`
}

// Workflow is an ordered list of steps.
type Workflow struct {
	Name        string `yaml:"-" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []Step `yaml:"steps" json:"steps"`
}

// WorkflowSource resolves workflow names.
type WorkflowSource interface {
	Workflow(name string) (Workflow, bool)
}

// StepRunner executes a single step against the run context.
type StepRunner interface {
	Execute(ctx context.Context, step Step, c *Context) (*StepResult, error)
}

// StepResult is what a completed step contributes to the run.
type StepResult struct {
	Step   string     `json:"step"`
	Role   agent.Role `json:"role"`
	Output string     `json:"output"`

	// Values holds the role's named outputs. The engine merges only the
	// well-known keys into the run context.
	Values map[string]any `json:"values,omitempty"`

	// Annotations are scraped from Output and may be empty.
	Annotations agent.Annotations `json:"annotations,omitempty"`

	// Extraction is set for roles whose output is written to files.
	Extraction *extract.Result `json:"extraction,omitempty"`
}

// ProgressEvent is emitted as steps change state.
type ProgressEvent struct {
	RunID   string
	Step    string
	Role    agent.Role
	Index   int
	Total   int
	Status  ProgressStatus
	Message string
}

// ProgressStatus is the state of a step within a run.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressSkipped  ProgressStatus = "skipped"
	ProgressFailed   ProgressStatus = "failed"
)
