package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/acan/internal/config"
	"github.com/dusk-indust/acan/internal/export"
	"github.com/dusk-indust/acan/internal/orchestrator"
)

func newDiagramCmd(g *globalFlags) *cobra.Command {
	var (
		workflow   string
		reportPath string
	)
	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Print a workflow as a Mermaid flowchart",
		Long: `Print a workflow as a Mermaid flowchart. With --report, steps are colored
by the outcome recorded in a JSON run report and the files they wrote are
attached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(g.ConfigDir)
			if err != nil {
				return err
			}
			wf, ok := cfg.Workflows.Workflow(workflow)
			if !ok {
				return fmt.Errorf("%w: %s", orchestrator.ErrWorkflowNotFound, workflow)
			}

			var report *orchestrator.RunReport
			if reportPath != "" {
				exp, err := export.ReadJSONFile(reportPath)
				if err != nil {
					return err
				}
				if exp.Workflow != workflow {
					return fmt.Errorf("report %s is for workflow %q, not %q", reportPath, exp.Workflow, workflow)
				}
				report = exp.Report()
			}

			fmt.Fprint(cmd.OutOrStdout(), export.GenerateMermaid(wf, report))
			return nil
		},
	}
	cmd.Flags().StringVarP(&workflow, "workflow", "w", "", "workflow to draw")
	cmd.Flags().StringVar(&reportPath, "report", "", "JSON run report from acan run --report")
	_ = cmd.MarkFlagRequired("workflow")
	return cmd
}
