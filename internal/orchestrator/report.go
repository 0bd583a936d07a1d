package orchestrator

import (
	"errors"
	"time"

	"github.com/dusk-indust/acan/internal/agent"
)

// StepStatus is the final state of one step in a run.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepSkipped   StepStatus = "skipped"
	StepFailed    StepStatus = "failed"
)

// StepOutcome records how one declared step ended.
type StepOutcome struct {
	Name     string        `json:"name"`
	Role     agent.Role    `json:"role"`
	Status   StepStatus    `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Created  []string      `json:"created,omitempty"`
	Modified []string      `json:"modified,omitempty"`
	Errors   []string      `json:"errors,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// RunReport is the result of one workflow run. Steps holds one outcome per
// declared step, in declaration order.
type RunReport struct {
	RunID      string        `json:"run_id"`
	Workflow   string        `json:"workflow"`
	Input      string        `json:"input"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Steps      []StepOutcome `json:"steps"`

	// Results holds the StepResult of every completed step by name.
	Results map[string]*StepResult `json:"-"`
}

// Count returns how many steps ended with status.
func (r *RunReport) Count(status StepStatus) int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == status {
			n++
		}
	}
	return n
}

// Succeeded reports whether every step completed.
func (r *RunReport) Succeeded() bool {
	return len(r.Steps) > 0 && r.Count(StepCompleted) == len(r.Steps)
}

// Files returns every path written during the run, created first.
func (r *RunReport) Files() (created, modified []string) {
	for _, s := range r.Steps {
		created = append(created, s.Created...)
		modified = append(modified, s.Modified...)
	}
	return created, modified
}

// Outcome returns the outcome for the named step.
func (r *RunReport) Outcome(name string) (StepOutcome, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepOutcome{}, false
}

// classify maps a step error to its status.
func classify(err error) StepStatus {
	switch {
	case err == nil:
		return StepCompleted
	case errors.Is(err, ErrRoleNotConfigured), errors.Is(err, ErrStepInputMissing):
		return StepSkipped
	default:
		return StepFailed
	}
}
