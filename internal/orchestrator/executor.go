package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dusk-indust/acan/internal/agent"
	"github.com/dusk-indust/acan/internal/extract"
)

// Value keys a step result may carry besides the context keys.
const (
	ValueSummary           = "summary"
	ValueFilesCreated      = "files_created"
	ValueFilesModified     = "files_modified"
	ValueExtractionSummary = "extraction_summary"
	ValueReviewSummary     = "review_summary"
)

// Dispatcher resolves the agent serving a role.
type Dispatcher interface {
	Lookup(role agent.Role) (agent.Entry, bool)
}

// Extractor materializes generated text as files.
type Extractor interface {
	Extract(text string) extract.Result
}

var _ StepRunner = (*Executor)(nil)

// Executor runs single steps: it checks inputs, calls the role's generator
// and, for extracting roles, writes the declared files.
type Executor struct {
	agents    Dispatcher
	extractor Extractor
	suggest   bool
	logger    zerolog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSuggestedFiles adds a best-effort file list to extracting roles'
// prompts, derived from the specification.
func WithSuggestedFiles(on bool) ExecutorOption {
	return func(e *Executor) { e.suggest = on }
}

// WithExecutorLogger sets the executor logger.
func WithExecutorLogger(l zerolog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor creates an Executor. x may be nil when no role needs to write
// files; extracting steps then fail.
func NewExecutor(agents Dispatcher, x Extractor, opts ...ExecutorOption) *Executor {
	e := &Executor{agents: agents, extractor: x, logger: zerolog.Nop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute runs step against c. It returns ErrRoleNotConfigured or
// ErrStepInputMissing without calling any generator, and wraps generator
// failures in ErrCollaborator. c is read, never written.
func (e *Executor) Execute(ctx context.Context, step Step, c *Context) (*StepResult, error) {
	spec, ok := agent.Lookup(step.Role)
	if !ok {
		return nil, fmt.Errorf("%w: step %q: unknown role %q", ErrRoleNotConfigured, step.Name, step.Role)
	}
	entry, ok := e.agents.Lookup(step.Role)
	if !ok || entry.Generator == nil {
		return nil, fmt.Errorf("%w: step %q: no agent serves role %q", ErrRoleNotConfigured, step.Name, step.Role)
	}
	if missing := c.Missing(spec.Requires...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: step %q needs %s", ErrStepInputMissing, step.Name, strings.Join(missing, ", "))
	}
	if spec.Extracts && e.extractor == nil {
		return nil, fmt.Errorf("%w: step %q: no extractor configured", ErrRoleNotConfigured, step.Name)
	}

	in := e.inputs(spec, c)
	req := agent.Request{
		Agent:       entry.Spec.Name,
		Role:        step.Role,
		System:      entry.Spec.System(),
		Prompt:      spec.Prompt(in),
		Model:       entry.Spec.Model,
		Temperature: entry.Spec.Temperature,
	}

	e.logger.Debug().Str("step", step.Name).Str("agent", req.Agent).
		Int("prompt_bytes", len(req.Prompt)).Msg("calling generator")

	text, err := entry.Generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: step %q (agent %s): %w", ErrCollaborator, step.Name, req.Agent, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: step %q (agent %s): %w", ErrCollaborator, step.Name, req.Agent, agent.ErrEmptyOutput)
	}

	res := &StepResult{
		Step:        step.Name,
		Role:        step.Role,
		Output:      text,
		Values:      primaryValues(step.Role, text),
		Annotations: e.annotate(spec, step, text),
	}

	if spec.Extracts {
		x := e.extractor.Extract(text)
		res.Extraction = &x
		res.Values[ValueFilesCreated] = x.Created
		res.Values[ValueFilesModified] = x.Modified
		res.Values[ValueExtractionSummary] = x.Summary
		e.logger.Info().Str("step", step.Name).Int("created", len(x.Created)).
			Int("modified", len(x.Modified)).Int("errors", len(x.Errors)).Msg("files extracted")
	}
	return res, nil
}

func (e *Executor) inputs(spec agent.RoleSpec, c *Context) agent.Inputs {
	in := agent.Inputs{}
	for _, k := range []string{agent.KeyUserRequirement, agent.KeySpecification, agent.KeyArchitecture, agent.KeyCode} {
		if c.Has(k) {
			in[k] = c.GetString(k)
		}
	}
	if spec.Extracts && e.suggest {
		if files := agent.SuggestFiles(in[agent.KeySpecification]); len(files) > 0 {
			in[agent.KeySuggestedFiles] = "- " + strings.Join(files, "\n- ")
		}
	}
	return in
}

// annotate runs the role's scraper. A panicking scraper yields no
// annotations.
func (e *Executor) annotate(spec agent.RoleSpec, step Step, text string) (a agent.Annotations) {
	if spec.Annotate == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn().Str("step", step.Name).Interface("panic", r).Msg("annotation dropped")
			a = nil
		}
	}()
	return spec.Annotate(text)
}

// primaryValues names the generated text the way downstream steps read it.
func primaryValues(role agent.Role, text string) map[string]any {
	v := map[string]any{}
	switch role {
	case agent.RoleProjectManager:
		v[agent.KeySpecification] = text
	case agent.RoleArchitect:
		v[agent.KeyArchitecture] = text
	case agent.RoleCoder, agent.RoleTester:
		v[ValueSummary] = text
	case agent.RoleReviewer:
		v[ValueReviewSummary] = text
	}
	return v
}
