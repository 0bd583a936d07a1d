package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/dusk-indust/acan/internal/app"
	"github.com/dusk-indust/acan/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	ConfigDir   string
	ProjectRoot string
	LogLevel    string
	NoColor     bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "acan",
		Short: "Automated coding agent network",
		Long: `acan runs workflows of specialist agents (project manager, architect,
coder, tester, reviewer) over a shared context and writes the files the
coder declares into the project directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if g.NoColor {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.ConfigDir, "config", "c", config.DefaultDir, "config directory holding agents.yaml, workflows.yaml and settings.yaml")
	pf.StringVar(&g.ProjectRoot, "project-root", "", "directory generated files are written under (default from settings)")
	pf.StringVar(&g.LogLevel, "log-level", "", "log level: debug, info, warn, error (default from settings)")
	pf.BoolVar(&g.NoColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newRunCmd(g),
		newContinueCmd(g),
		newStatusCmd(g),
		newListWorkflowsCmd(g),
		newListAgentsCmd(g),
		newListProjectsCmd(g),
		newResultsCmd(g),
		newServeMCPCmd(g),
		newInitCmd(g),
		newDiagramCmd(g),
		newVersionCmd(),
	)
	return root
}

// loadApp loads the configuration named by the global flags. Logs go to
// the command's stderr so stdout stays clean for results.
func loadApp(cmd *cobra.Command, g *globalFlags) (*app.App, error) {
	return app.Load(app.Options{
		ConfigDir:   g.ConfigDir,
		ProjectRoot: g.ProjectRoot,
		LogLevel:    g.LogLevel,
		Console:     cmd.ErrOrStderr(),
		NoColor:     g.NoColor,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
