package orchestrator

import "fmt"

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
		// Drop the event if the channel is full.
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	label := event.Step
	if event.Role != "" {
		label = fmt.Sprintf("%s (%s)", event.Step, event.Role)
	}
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  \u25cb %s (pending)", label)
	case ProgressWorking:
		return fmt.Sprintf("  \u25cf %s...", label)
	case ProgressComplete:
		return fmt.Sprintf("  \u2713 %s complete", label)
	case ProgressSkipped:
		return fmt.Sprintf("  - %s skipped: %s", label, event.Message)
	case ProgressFailed:
		return fmt.Sprintf("  \u2717 %s failed: %s", label, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", label)
	}
}

// FormatRunHeader formats a run header for display.
// Returns: "[{workflow}] {runID}: {N} step(s)"
func FormatRunHeader(workflow, runID string, steps int) string {
	return fmt.Sprintf("[%s] %s: %d step(s)", workflow, runID, steps)
}
