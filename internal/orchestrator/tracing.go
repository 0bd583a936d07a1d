// Tracing instrumentation for the engine.
package orchestrator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dusk-indust/acan/internal/orchestrator"

// startRunSpan starts the span covering a whole workflow run.
func (e *Engine) startRunSpan(ctx context.Context, wf Workflow, runID string) (context.Context, trace.Span) {
	ctx, span := e.tracer.Start(ctx, "workflow.run")
	span.SetAttributes(
		attribute.String("workflow.name", wf.Name),
		attribute.String("workflow.run_id", runID),
		attribute.Int("workflow.steps", len(wf.Steps)),
	)
	return ctx, span
}

// endRunSpan ends the run span with the step tallies.
func (e *Engine) endRunSpan(span trace.Span, report *RunReport, err error) {
	span.SetAttributes(
		attribute.Int("steps.completed", report.Count(StepCompleted)),
		attribute.Int("steps.skipped", report.Count(StepSkipped)),
		attribute.Int("steps.failed", report.Count(StepFailed)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// startStepSpan starts a span for one step.
func (e *Engine) startStepSpan(ctx context.Context, step Step) (context.Context, trace.Span) {
	ctx, span := e.tracer.Start(ctx, "step."+step.Name)
	span.SetAttributes(attribute.String("step.role", string(step.Role)))
	return ctx, span
}

// endStepSpan ends the step span with its outcome.
func (e *Engine) endStepSpan(span trace.Span, out StepOutcome, err error) {
	span.SetAttributes(
		attribute.String("step.status", string(out.Status)),
		attribute.Int("files.created", len(out.Created)),
		attribute.Int("files.modified", len(out.Modified)),
	)
	if err != nil {
		span.RecordError(err)
		if out.Status == StepFailed {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
