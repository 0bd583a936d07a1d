package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/acan/internal/config"
	"github.com/dusk-indust/acan/internal/results"
)

func newListWorkflowsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list-workflows",
		Short: "List the configured workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(g.ConfigDir)
			if err != nil {
				return err
			}
			var rows [][]string
			for _, name := range cfg.Workflows.Names() {
				wf, _ := cfg.Workflows.Workflow(name)
				rows = append(rows, []string{name, strconv.Itoa(len(wf.Steps)), wf.Description})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Workflows"))
			fmt.Fprint(out, renderTable([]string{"NAME", "STEPS", "DESCRIPTION"}, rows))
			return nil
		},
	}
}

func newListAgentsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list-agents",
		Short: "List the configured agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agents, err := config.LoadAgents(filepath.Join(g.ConfigDir, config.AgentsFile))
			if err != nil {
				return err
			}
			var rows [][]string
			for _, a := range agents {
				enabled := "yes"
				if !a.IsEnabled() {
					enabled = "no"
				}
				rows = append(rows, []string{
					a.Name,
					string(a.Role),
					orDash(a.Model),
					string(a.Provider.Type),
					statusStyle(enabled).Render(enabled),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Agents"))
			fmt.Fprint(out, renderTable([]string{"NAME", "ROLE", "MODEL", "PROVIDER", "ENABLED"}, rows))
			return nil
		},
	}
}

func newListProjectsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list-projects",
		Short: "List projects and their iteration counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.OpenHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			projects, err := store.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, warnStyle.Render("No projects found."))
				fmt.Fprintln(out, "Create one with: acan run -w <workflow> -i <input> --project <name>")
				return nil
			}
			var rows [][]string
			for _, p := range projects {
				rows = append(rows, []string{
					p.Name,
					p.CreatedAt.Format("2006-01-02"),
					strconv.Itoa(p.Iterations),
					p.Path,
				})
			}
			fmt.Fprintln(out, titleStyle.Render("Projects"))
			fmt.Fprint(out, renderTable([]string{"NAME", "CREATED", "ITERATIONS", "PATH"}, rows))
			return nil
		},
	}
}

func newResultsCmd(g *globalFlags) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show the files workflows have generated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			root := a.Root
			title := "Workflow Results"
			if project != "" {
				store, err := a.OpenHistory(cmd.Context())
				if err != nil {
					return err
				}
				p, err := store.GetProject(cmd.Context(), project)
				store.Close()
				if err != nil {
					return err
				}
				if p == nil {
					return fmt.Errorf("project %q not found (see acan list-projects)", project)
				}
				root = p.Path
				title = "Results for Project: " + project
			}

			r, err := results.Scan(root)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, titleStyle.Render(title))
			fmt.Fprintln(out)
			printArtifacts(out, "Specifications", r.Specifications, true)
			printArtifacts(out, "Source Code", r.Source, false)
			printArtifacts(out, "Tests", r.Tests, false)
			printArtifacts(out, "Other Files", r.Other, false)

			fmt.Fprintln(out, headerStyle.Render("Quick Stats:"))
			fmt.Fprintf(out, "  - Specifications: %d\n", len(r.Specifications))
			fmt.Fprintf(out, "  - Source files: %d\n", len(r.Source))
			fmt.Fprintf(out, "  - Test files: %d\n", len(r.Tests))
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "show results for a named project")
	return cmd
}

func printArtifacts(w io.Writer, title string, list []results.Artifact, sizes bool) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintln(w, headerStyle.Render(title+":"))
	for _, a := range list {
		if sizes {
			fmt.Fprintf(w, "  - %s %s\n", a.Path, dimStyle.Render(fmt.Sprintf("(%.1f KB)", float64(a.Size)/1024)))
			continue
		}
		fmt.Fprintf(w, "  - %s\n", a.Path)
	}
	fmt.Fprintln(w)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
