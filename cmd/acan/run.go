package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/acan/internal/agent"
	"github.com/dusk-indust/acan/internal/app"
	"github.com/dusk-indust/acan/internal/export"
	"github.com/dusk-indust/acan/internal/orchestrator"
)

type runFlags struct {
	Workflow string
	Input    string
	Project  string
	Report   string
	SpecFile string
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a workflow with the given input",
		Long: `Run a workflow. Steps run in order; a step whose role has no enabled
agent, or whose inputs are missing, is skipped and the run continues.

With --project the run happens inside projects/<name>/ and is recorded as
an iteration of that project, which is created on first use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := app.RunRequest{Workflow: f.Workflow, Input: f.Input, Project: f.Project}
			if f.SpecFile != "" {
				data, err := os.ReadFile(f.SpecFile)
				if err != nil {
					return fmt.Errorf("reading specification: %w", err)
				}
				req.Seed = map[string]string{agent.KeySpecification: string(data)}
			}
			return executeRun(cmd, g, req, f.Report, false)
		},
	}
	cmd.Flags().StringVarP(&f.Workflow, "workflow", "w", "", "workflow to run")
	cmd.Flags().StringVarP(&f.Input, "input", "i", "", "input requirement or description")
	cmd.Flags().StringVarP(&f.Project, "project", "p", "", "run inside a named project and record the iteration")
	cmd.Flags().StringVar(&f.Report, "report", "", "write a JSON run report to this path")
	cmd.Flags().StringVar(&f.SpecFile, "spec", "", "seed the run with an existing specification file")
	_ = cmd.MarkFlagRequired("workflow")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

type continueFlags struct {
	Project  string
	Feedback string
	Workflow string
	Report   string
}

func newContinueCmd(g *globalFlags) *cobra.Command {
	f := &continueFlags{}
	cmd := &cobra.Command{
		Use:   "continue-project",
		Short: "Continue an existing project with new feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := app.RunRequest{Workflow: f.Workflow, Project: f.Project, Feedback: f.Feedback}
			return executeRun(cmd, g, req, f.Report, true)
		},
	}
	cmd.Flags().StringVarP(&f.Project, "project", "p", "", "project to continue")
	cmd.Flags().StringVarP(&f.Feedback, "feedback", "f", "", "feedback or new requirements")
	cmd.Flags().StringVarP(&f.Workflow, "workflow", "w", app.DefaultContinueWorkflow, "workflow to run")
	cmd.Flags().StringVar(&f.Report, "report", "", "write a JSON run report to this path")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("feedback")
	return cmd
}

func executeRun(cmd *cobra.Command, g *globalFlags, req app.RunRequest, reportPath string, cont bool) error {
	a, err := loadApp(cmd, g)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	req.RunID = orchestrator.NewRunID(time.Now())
	if wf, ok := a.Config.Workflows.Workflow(req.Workflow); ok {
		fmt.Fprintln(out, titleStyle.Render(orchestrator.FormatRunHeader(req.Workflow, req.RunID, len(wf.Steps))))
		if req.Project != "" {
			fmt.Fprintf(out, "%s %s\n", dimStyle.Render("project:"), req.Project)
		}
	}

	pr := orchestrator.NewProgressReporter()
	wait := printProgress(out, pr)

	var report *orchestrator.RunReport
	if cont {
		report, err = a.Continue(cmd.Context(), req, pr)
	} else {
		report, err = a.Run(cmd.Context(), req, pr)
	}
	wait()

	if report != nil {
		printSummary(out, report)
		if reportPath != "" {
			if werr := export.WriteJSONFile(reportPath, report); werr != nil {
				return werr
			}
			fmt.Fprintf(out, "%s %s\n", dimStyle.Render("report:"), reportPath)
		}
	}
	return err
}

// printProgress prints engine events as they arrive. The returned function
// closes pr and waits for the printer to drain.
func printProgress(w io.Writer, pr *orchestrator.ProgressReporter) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range pr.Subscribe() {
			if ev.Status == orchestrator.ProgressPending {
				continue
			}
			line := orchestrator.FormatProgress(ev)
			switch ev.Status {
			case orchestrator.ProgressComplete:
				line = okStyle.Render(line)
			case orchestrator.ProgressSkipped:
				line = warnStyle.Render(line)
			case orchestrator.ProgressFailed:
				line = errStyle.Render(line)
			}
			fmt.Fprintln(w, line)
		}
	}()
	return func() {
		pr.Close()
		<-done
	}
}

func printSummary(w io.Writer, r *orchestrator.RunReport) {
	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d completed, %d skipped, %d failed in %s",
		r.Count(orchestrator.StepCompleted),
		r.Count(orchestrator.StepSkipped),
		r.Count(orchestrator.StepFailed),
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	if r.Succeeded() {
		fmt.Fprintln(w, okStyle.Render("Workflow completed: "+summary))
	} else {
		fmt.Fprintln(w, warnStyle.Render("Workflow finished: "+summary))
	}

	created, modified := r.Files()
	for _, p := range created {
		fmt.Fprintf(w, "  %s %s\n", statusStyle("created").Render("+"), p)
	}
	for _, p := range modified {
		fmt.Fprintf(w, "  %s %s\n", statusStyle("modified").Render("~"), p)
	}
	for _, s := range r.Steps {
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s %s: %s\n", errStyle.Render("!"), s.Name, e)
		}
	}
}
