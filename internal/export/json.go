package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-indust/acan/internal/agent"
	"github.com/dusk-indust/acan/internal/orchestrator"
)

// RunExport is the top-level JSON export of a workflow run.
type RunExport struct {
	RunID      string       `json:"runId"`
	Workflow   string       `json:"workflow"`
	Input      string       `json:"input"`
	StartedAt  string       `json:"startedAt"`
	FinishedAt string       `json:"finishedAt"`
	ExportedAt string       `json:"exportedAt"`
	Succeeded  bool         `json:"succeeded"`
	Counts     StatusCounts `json:"counts"`
	Steps      []StepExport `json:"steps"`
}

// StatusCounts tallies step outcomes.
type StatusCounts struct {
	Completed int `json:"completed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// StepExport describes one step of the run.
type StepExport struct {
	Name       string   `json:"name"`
	Role       string   `json:"role"`
	Status     string   `json:"status"`
	Reason     string   `json:"reason,omitempty"`
	DurationMS int64    `json:"durationMs"`
	Created    []string `json:"created,omitempty"`
	Modified   []string `json:"modified,omitempty"`
	Errors     []string `json:"errors,omitempty"`

	// Annotations carries the best-effort metadata of completed steps.
	Annotations map[string]any `json:"annotations,omitempty"`
}

// ExportRun builds a RunExport from a report.
func ExportRun(r *orchestrator.RunReport, now time.Time) *RunExport {
	out := &RunExport{
		RunID:      r.RunID,
		Workflow:   r.Workflow,
		Input:      r.Input,
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: r.FinishedAt.UTC().Format(time.RFC3339),
		ExportedAt: now.UTC().Format(time.RFC3339),
		Succeeded:  r.Succeeded(),
		Counts: StatusCounts{
			Completed: r.Count(orchestrator.StepCompleted),
			Skipped:   r.Count(orchestrator.StepSkipped),
			Failed:    r.Count(orchestrator.StepFailed),
		},
	}
	for _, s := range r.Steps {
		se := StepExport{
			Name:       s.Name,
			Role:       string(s.Role),
			Status:     string(s.Status),
			Reason:     s.Reason,
			DurationMS: s.Duration.Milliseconds(),
			Created:    s.Created,
			Modified:   s.Modified,
			Errors:     s.Errors,
		}
		if res, ok := r.Results[s.Name]; ok && len(res.Annotations) > 0 {
			se.Annotations = res.Annotations
		}
		out.Steps = append(out.Steps, se)
	}
	return out
}

// WriteJSON encodes the run export of r to w, indented.
func WriteJSON(w io.Writer, r *orchestrator.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ExportRun(r, time.Now())); err != nil {
		return fmt.Errorf("export: encode run %s: %w", r.RunID, err)
	}
	return nil
}

// WriteJSONFile writes the run export of r to path, creating parent
// directories.
func WriteJSONFile(path string, r *orchestrator.RunReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := WriteJSON(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSONFile loads a run export written by WriteJSONFile.
func ReadJSONFile(path string) (*RunExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	var out RunExport
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("export: parse %s: %w", path, err)
	}
	return &out, nil
}

// Report rebuilds the step outcomes of an exported run. Step results and
// durations below a millisecond are not recoverable.
func (e *RunExport) Report() *orchestrator.RunReport {
	r := &orchestrator.RunReport{RunID: e.RunID, Workflow: e.Workflow, Input: e.Input}
	r.StartedAt, _ = time.Parse(time.RFC3339, e.StartedAt)
	r.FinishedAt, _ = time.Parse(time.RFC3339, e.FinishedAt)
	for _, s := range e.Steps {
		r.Steps = append(r.Steps, orchestrator.StepOutcome{
			Name:     s.Name,
			Role:     agent.Role(s.Role),
			Status:   orchestrator.StepStatus(s.Status),
			Reason:   s.Reason,
			Created:  s.Created,
			Modified: s.Modified,
			Errors:   s.Errors,
			Duration: time.Duration(s.DurationMS) * time.Millisecond,
		})
	}
	return r
}
