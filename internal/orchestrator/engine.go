package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dusk-indust/acan/internal/agent"
)

// Engine runs workflows step by step over a shared Context. A failing or
// skipped step never stops the run.
type Engine struct {
	runner    StepRunner
	workflows WorkflowSource
	logger    zerolog.Logger
	tracer    trace.Tracer
	progress  *ProgressReporter
	now       func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithTracerProvider sets the provider the engine's spans come from. The
// global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) EngineOption {
	return func(e *Engine) { e.tracer = tp.Tracer(tracerName) }
}

// WithProgress makes the engine emit step events to pr.
func WithProgress(pr *ProgressReporter) EngineOption {
	return func(e *Engine) { e.progress = pr }
}

// WithWorkflows sets the source RunNamed resolves names against.
func WithWorkflows(src WorkflowSource) EngineOption {
	return func(e *Engine) { e.workflows = src }
}

// NewEngine creates an Engine running steps through runner.
func NewEngine(runner StepRunner, opts ...EngineOption) *Engine {
	e := &Engine{
		runner: runner,
		logger: zerolog.Nop(),
		tracer: otel.GetTracerProvider().Tracer(tracerName),
		now:    time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RunOption configures a single run.
type RunOption func(*runConfig)

type runConfig struct {
	runID string
	seed  map[string]string
}

// WithSeed pre-populates the run context, e.g. with a specification from a
// previous run. The user requirement always comes from the run input.
func WithSeed(values map[string]string) RunOption {
	return func(rc *runConfig) {
		for k, v := range values {
			rc.seed[k] = v
		}
	}
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) RunOption {
	return func(rc *runConfig) { rc.runID = id }
}

// NewRunID returns a sortable unique run identifier.
func NewRunID(t time.Time) string {
	return fmt.Sprintf("run-%s-%s", t.Format("20060102-150405"), uuid.NewString()[:8])
}

// RunNamed resolves name through the configured workflow source and runs it.
func (e *Engine) RunNamed(ctx context.Context, name, input string, opts ...RunOption) (*RunReport, error) {
	if e.workflows == nil {
		return nil, fmt.Errorf("engine: %w: %s (no workflows loaded)", ErrWorkflowNotFound, name)
	}
	wf, ok := e.workflows.Workflow(name)
	if !ok {
		return nil, fmt.Errorf("engine: %w: %s", ErrWorkflowNotFound, name)
	}
	if wf.Name == "" {
		wf.Name = name
	}
	return e.Run(ctx, wf, input, opts...)
}

// Run executes wf's steps in declaration order. The report holds one
// outcome per declared step. The returned error is non-nil only when ctx
// ended the run early; the report is valid in that case too.
func (e *Engine) Run(ctx context.Context, wf Workflow, input string, opts ...RunOption) (*RunReport, error) {
	rc := runConfig{seed: map[string]string{}}
	for _, o := range opts {
		o(&rc)
	}
	start := e.now()
	if rc.runID == "" {
		rc.runID = NewRunID(start)
	}

	c := NewContext()
	for k, v := range rc.seed {
		c.Set(k, v)
	}
	c.Set(agent.KeyUserRequirement, input)

	report := &RunReport{
		RunID:     rc.runID,
		Workflow:  wf.Name,
		Input:     input,
		StartedAt: start,
		Steps:     make([]StepOutcome, 0, len(wf.Steps)),
	}

	log := e.logger.With().Str("run", rc.runID).Str("workflow", wf.Name).Logger()
	log.Info().Int("steps", len(wf.Steps)).Msg("workflow started")

	ctx, span := e.startRunSpan(ctx, wf, rc.runID)

	for i := range wf.Steps {
		e.emit(rc.runID, wf.Steps[i], i, len(wf.Steps), ProgressPending, "")
	}

	var runErr error
	for i, step := range wf.Steps {
		if err := ctx.Err(); err != nil {
			runErr = err
			out := StepOutcome{Name: step.Name, Role: step.Role, Status: StepSkipped, Reason: "run canceled: " + err.Error()}
			report.Steps = append(report.Steps, out)
			e.emit(rc.runID, step, i, len(wf.Steps), ProgressSkipped, out.Reason)
			continue
		}
		report.Steps = append(report.Steps, e.runStep(ctx, log, rc.runID, step, i, len(wf.Steps), c))
	}

	report.FinishedAt = e.now()
	report.Results = c.Results()
	e.endRunSpan(span, report, runErr)

	log.Info().
		Int("completed", report.Count(StepCompleted)).
		Int("skipped", report.Count(StepSkipped)).
		Int("failed", report.Count(StepFailed)).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("workflow finished")

	return report, runErr
}

func (e *Engine) runStep(ctx context.Context, log zerolog.Logger, runID string, step Step, i, total int, c *Context) StepOutcome {
	ctx, span := e.startStepSpan(ctx, step)
	e.emit(runID, step, i, total, ProgressWorking, "")

	started := e.now()
	res, err := e.safeExecute(ctx, step, c)
	out := StepOutcome{
		Name:     step.Name,
		Role:     step.Role,
		Status:   classify(err),
		Duration: e.now().Sub(started),
	}

	switch out.Status {
	case StepCompleted:
		merge(c, res)
		c.Record(step.Name, res)
		if x := res.Extraction; x != nil {
			out.Created, out.Modified, out.Errors = x.Created, x.Modified, x.Errors
		}
		log.Info().Str("step", step.Name).Str("role", string(step.Role)).Msg("step completed")
		e.emit(runID, step, i, total, ProgressComplete, "")
	case StepSkipped:
		out.Reason = err.Error()
		log.Warn().Str("step", step.Name).Str("reason", out.Reason).Msg("step skipped")
		e.emit(runID, step, i, total, ProgressSkipped, out.Reason)
	default:
		out.Reason = err.Error()
		log.Error().Err(err).Str("step", step.Name).Msg("step failed")
		e.emit(runID, step, i, total, ProgressFailed, out.Reason)
	}

	e.endStepSpan(span, out, err)
	return out
}

// safeExecute turns a panicking runner into a collaborator failure.
func (e *Engine) safeExecute(ctx context.Context, step Step, c *Context) (res *StepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: step %q panicked: %v", ErrCollaborator, step.Name, r)
		}
	}()
	res, err = e.runner.Execute(ctx, step, c)
	if err == nil && res == nil {
		err = fmt.Errorf("%w: step %q returned no result", ErrCollaborator, step.Name)
	}
	return res, err
}

// merge copies the well-known keys of res into c. code prefers an explicit
// code value and falls back to summary.
func merge(c *Context, res *StepResult) {
	for _, k := range []string{agent.KeySpecification, agent.KeyArchitecture} {
		if v, ok := res.Values[k]; ok {
			c.Set(k, v)
		}
	}
	if v, ok := res.Values[agent.KeyCode]; ok {
		c.Set(agent.KeyCode, v)
	} else if v, ok := res.Values[ValueSummary]; ok {
		c.Set(agent.KeyCode, v)
	}
}

func (e *Engine) emit(runID string, step Step, i, total int, status ProgressStatus, msg string) {
	if e.progress == nil {
		return
	}
	e.progress.Emit(ProgressEvent{
		RunID:   runID,
		Step:    step.Name,
		Role:    step.Role,
		Index:   i,
		Total:   total,
		Status:  status,
		Message: msg,
	})
}
