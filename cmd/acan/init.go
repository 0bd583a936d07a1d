package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/acan/internal/config"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// acanMCPEntry is the MCP server configuration for the acan binary.
var acanMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "acan",
  "args": ["serve-mcp"]
}`)

func newInitCmd(g *globalFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Install default configuration and MCP registration",
		Long: `Write the default agents, workflows and settings into the config
directory and register "acan serve-mcp" in .mcp.json. Existing files are
kept unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd.OutOrStdout(), dir, g.ConfigDir, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

// runInit installs the default config files and MCP configuration into the
// target project directory.
func runInit(w io.Writer, projectDir, configDir string, force bool) error {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolving project dir: %w", err)
	}
	if !filepath.IsAbs(configDir) {
		configDir = filepath.Join(abs, configDir)
	}

	written, err := config.WriteDefaults(configDir, force)
	if err != nil {
		return err
	}
	for _, r := range written {
		if r.Skipped {
			fmt.Fprintf(w, "  skipped %s (exists, use --force to overwrite)\n", dotRelative(abs, r.Path))
			continue
		}
		fmt.Fprintf(w, "  created %s\n", dotRelative(abs, r.Path))
	}

	if err := mergeMCPConfig(w, filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSetup complete. Run 'acan status' to check the agents.")
	return nil
}

// mergeMCPConfig creates or merges the acan entry into .mcp.json, keeping
// other servers.
func mergeMCPConfig(w io.Writer, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		data = nil
	default:
		return fmt.Errorf("reading %s: %w", mcpPath, err)
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["acan"]; exists && !force {
		fmt.Fprintln(w, "  skipped .mcp.json acan entry (exists, use --force to overwrite)")
		return nil
	}

	cfg.MCPServers["acan"] = acanMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with acan MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + filepath.ToSlash(rel)
}
