package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/acan/internal/mcptools"
)

// defaultMCPAddr is used by --http when settings name no address.
const defaultMCPAddr = "localhost:8765"

func newServeMCPCmd(g *globalFlags) *cobra.Command {
	var (
		useHTTP bool
		addr    string
	)
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the workspace tools over MCP",
		Long: `Serve file, specification and extraction tools for the project root over
the Model Context Protocol. Stdio is used unless --http is given. Writes
are subject to the same protected paths as workflow output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			s, _, err := a.Workspace(a.Root)
			if err != nil {
				return err
			}
			server := mcptools.NewWorkspaceMCPServer(mcptools.NewWorkspaceService(s, a.Guard(), a.Log.Logger))

			if !useHTTP {
				a.Log.Info().Str("root", a.Root).Msg("serving MCP on stdio")
				return mcptools.RunStdio(cmd.Context(), server)
			}
			if addr == "" {
				addr = a.Config.Settings.MCPHTTPAddr
			}
			if addr == "" {
				addr = defaultMCPAddr
			}
			a.Log.Info().Str("root", a.Root).Str("addr", addr).Msg("serving MCP over HTTP")
			return mcptools.RunHTTP(cmd.Context(), server, addr)
		},
	}
	cmd.Flags().BoolVar(&useHTTP, "http", false, "serve streamable HTTP instead of stdio")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from settings, then "+defaultMCPAddr+")")
	return cmd
}
