package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewWorkspaceMCPServer creates an MCP server with the workspace tools
// registered.
func NewWorkspaceMCPServer(svc *WorkspaceService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "acan-workspace",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_file",
		Description: "Read a file from the workspace.",
	}, svc.ReadFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "write_file",
		Description: "Create or overwrite a file in the workspace. Protected files (agent configuration, .env, dependency manifests) are refused.",
	}, svc.WriteFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_directory",
		Description: "List the entries of a workspace directory, optionally filtered by a glob on the entry name.",
	}, svc.ListDirectory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_directory",
		Description: "Create a directory in the workspace, including missing parents.",
	}, svc.CreateDirectory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_specification",
		Description: "Store a markdown specification under specifications/, named after its title.",
	}, svc.CreateSpecification)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_specification",
		Description: "Read a specification from specifications/.",
	}, svc.ReadSpecification)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_specifications",
		Description: "List the specifications in specifications/, newest first.",
	}, svc.ListSpecifications)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_files",
		Description: "Find file declarations in generated text (write_file calls, code blocks with a path comment, file headings followed by a code block) and write them to the workspace.",
	}, svc.ExtractFiles)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP server over streamable HTTP on addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
