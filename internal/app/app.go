// Package app wires configuration, agents, the extraction pipeline, the
// workflow engine and project history into one runnable unit.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/dusk-indust/acan/internal/agent"
	"github.com/dusk-indust/acan/internal/config"
	"github.com/dusk-indust/acan/internal/extract"
	"github.com/dusk-indust/acan/internal/history"
	"github.com/dusk-indust/acan/internal/logging"
	"github.com/dusk-indust/acan/internal/orchestrator"
	"github.com/dusk-indust/acan/internal/results"
	"github.com/dusk-indust/acan/internal/sink"
)

// ProjectsDir holds the directories of named projects under the root.
const ProjectsDir = "projects"

// DefaultContinueWorkflow is the workflow continue-project runs when none
// is named.
const DefaultContinueWorkflow = "feature_implementation"

// Options configures Load. Empty fields fall back to settings.yaml.
type Options struct {
	ConfigDir   string
	ProjectRoot string
	LogLevel    string
	Console     io.Writer
	NoColor     bool

	// TracerProvider overrides the global provider for engine spans.
	TracerProvider trace.TracerProvider

	// History, when set, replaces the store at HistoryPath. The app does
	// not close it.
	History history.Store
}

// App is a loaded configuration with ready agents.
type App struct {
	Config *config.Config
	Root   string
	Log    *logging.Logger
	Agents *agent.Registry

	tp      trace.TracerProvider
	history history.Store
}

// Load reads .env and the config directory, opens the logger and builds
// one generator per enabled agent.
func Load(opts Options) (*App, error) {
	dir := opts.ConfigDir
	if dir == "" {
		dir = config.DefaultDir
	}
	if err := config.LoadEnv("."); err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	root := opts.ProjectRoot
	if root == "" {
		root = cfg.Settings.ProjectRoot
	}
	if root == "" {
		root = "."
	}
	if root, err = filepath.Abs(root); err != nil {
		return nil, fmt.Errorf("app: resolve project root: %w", err)
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.Settings.LogLevel
	}
	logOpts := logging.Options{Level: level, Console: opts.Console, NoColor: opts.NoColor}
	if cfg.Settings.LogFile {
		logOpts.ProjectDir = root
	}
	log, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}

	reg := agent.NewRegistry()
	if err := reg.Build(cfg.Agents); err != nil {
		log.Close()
		return nil, fmt.Errorf("app: %w", err)
	}
	for _, name := range reg.Disabled() {
		log.Debug().Str("agent", name).Msg("agent disabled")
	}

	return &App{Config: cfg, Root: root, Log: log, Agents: reg, tp: opts.TracerProvider, history: opts.History}, nil
}

// Close releases the log file.
func (a *App) Close() error {
	return a.Log.Close()
}

// Guard returns the built-in protected paths plus those from settings.
func (a *App) Guard() *extract.Guard {
	return extract.DefaultGuard(a.Config.Settings.ProtectedPaths...)
}

// Workspace returns a sink and extraction pipeline writing beneath dir.
func (a *App) Workspace(dir string) (*sink.FileSink, *extract.Pipeline, error) {
	s, err := sink.New(dir)
	if err != nil {
		return nil, nil, err
	}
	return s, extract.New(a.Guard(), s, extract.WithLogger(a.Log.Logger)), nil
}

// Engine returns a workflow engine whose coder steps write beneath dir.
// pr may be nil.
func (a *App) Engine(dir string, pr *orchestrator.ProgressReporter) (*orchestrator.Engine, error) {
	_, pipeline, err := a.Workspace(dir)
	if err != nil {
		return nil, err
	}
	exec := orchestrator.NewExecutor(a.Agents, pipeline,
		orchestrator.WithSuggestedFiles(a.Config.Settings.SuggestFiles),
		orchestrator.WithExecutorLogger(a.Log.Logger),
	)
	opts := []orchestrator.EngineOption{
		orchestrator.WithLogger(a.Log.Logger),
		orchestrator.WithWorkflows(a.Config.Workflows),
	}
	if pr != nil {
		opts = append(opts, orchestrator.WithProgress(pr))
	}
	if a.tp != nil {
		opts = append(opts, orchestrator.WithTracerProvider(a.tp))
	}
	return orchestrator.NewEngine(exec, opts...), nil
}

// HistoryPath is where project history is kept.
func (a *App) HistoryPath() string {
	if p := a.Config.Settings.HistoryDB; p != "" {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(a.Root, p)
	}
	return filepath.Join(a.Root, logging.StateDir, "history")
}

// OpenHistory opens the project history store. Callers close it.
func (a *App) OpenHistory(ctx context.Context) (history.Store, error) {
	if a.history != nil {
		return unclosable{a.history}, nil
	}
	p := a.HistoryPath()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("app: history dir: %w", err)
	}
	return history.Open(ctx, p, a.Log.Logger)
}

type unclosable struct{ history.Store }

func (unclosable) Close() error { return nil }

// ProjectDir returns the directory a new project named name is created in.
func (a *App) ProjectDir(name string) string {
	return filepath.Join(a.Root, ProjectsDir, history.Slug(name))
}

// RunRequest describes one workflow run.
type RunRequest struct {
	Workflow string
	Input    string

	// Project, when set, runs inside that project's directory and records
	// the run as an iteration. Unknown projects are created.
	Project string

	Feedback string
	Seed     map[string]string

	// RunID overrides the generated run ID.
	RunID string
}

func (r RunRequest) options() []orchestrator.RunOption {
	opts := []orchestrator.RunOption{orchestrator.WithSeed(r.Seed)}
	if r.RunID != "" {
		opts = append(opts, orchestrator.WithRunID(r.RunID))
	}
	return opts
}

// Run executes a workflow. The report is returned even when ctx ends the
// run early.
func (a *App) Run(ctx context.Context, req RunRequest, pr *orchestrator.ProgressReporter) (*orchestrator.RunReport, error) {
	if req.Project == "" {
		eng, err := a.Engine(a.Root, pr)
		if err != nil {
			return nil, err
		}
		return eng.RunNamed(ctx, req.Workflow, req.Input, req.options()...)
	}

	store, err := a.OpenHistory(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	p, err := store.GetProject(ctx, req.Project)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &history.Project{
			Name:        req.Project,
			Path:        a.ProjectDir(req.Project),
			Description: req.Input,
			CreatedAt:   time.Now().UTC(),
		}
		if err := store.AddProject(ctx, *p); err != nil {
			return nil, err
		}
		a.Log.Info().Str("project", p.Name).Str("path", p.Path).Msg("project created")
	}
	return a.runInProject(ctx, store, p, req, pr)
}

// Continue runs another iteration of req.Project driven by req.Feedback.
// The workflow input is built from the project's history; req.Input is
// ignored. An empty workflow means DefaultContinueWorkflow.
func (a *App) Continue(ctx context.Context, req RunRequest, pr *orchestrator.ProgressReporter) (*orchestrator.RunReport, error) {
	if req.Workflow == "" {
		req.Workflow = DefaultContinueWorkflow
	}
	project := req.Project
	store, err := a.OpenHistory(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	p, err := store.GetProject(ctx, project)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("app: %w: %s", history.ErrUnknownProject, project)
	}
	runs, err := store.Runs(ctx, project)
	if err != nil {
		return nil, err
	}

	st := history.ProjectState{Project: *p, Runs: runs}
	if r, err := results.Scan(p.Path); err == nil {
		st.Specifications = len(r.Specifications)
		st.SourceFiles = len(r.Source)
		st.TestFiles = len(r.Tests)
	}

	req.Input = history.ContinuationPrompt(st, req.Feedback)
	return a.runInProject(ctx, store, p, req, pr)
}

func (a *App) runInProject(ctx context.Context, store history.Store, p *history.Project, req RunRequest, pr *orchestrator.ProgressReporter) (*orchestrator.RunReport, error) {
	if err := os.MkdirAll(p.Path, 0o755); err != nil {
		return nil, fmt.Errorf("app: project dir: %w", err)
	}
	eng, err := a.Engine(p.Path, pr)
	if err != nil {
		return nil, err
	}
	report, runErr := eng.RunNamed(ctx, req.Workflow, req.Input, req.options()...)
	if report == nil {
		return nil, runErr
	}

	// A canceled run is still an iteration.
	if err := store.RecordRun(context.WithoutCancel(ctx), p.Name, RecordOf(report, req.Feedback)); err != nil {
		a.Log.Error().Err(err).Str("project", p.Name).Msg("recording run")
	}
	return report, runErr
}

// RecordOf converts a run report into a history record.
func RecordOf(r *orchestrator.RunReport, feedback string) history.Run {
	run := history.Run{
		ID:         r.RunID,
		Workflow:   r.Workflow,
		Input:      r.Input,
		Feedback:   feedback,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Completed:  r.Count(orchestrator.StepCompleted),
		Skipped:    r.Count(orchestrator.StepSkipped),
		Failed:     r.Count(orchestrator.StepFailed),
	}
	created, modified := r.Files()
	for _, f := range created {
		run.Files = append(run.Files, history.FileRecord{Path: f, Kind: sink.Created.String()})
	}
	for _, f := range modified {
		run.Files = append(run.Files, history.FileRecord{Path: f, Kind: sink.Modified.String()})
	}
	return run
}
