package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve a document over MCP",
	Long: `Indexes the document, then starts a Model Context Protocol server exposing
the "ask" and "sources" tools over it.

By default, the server communicates over stdio using JSON-RPC. Progress is
written to stderr so it never mixes with the protocol stream.

Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default)
  docqa mcp serve handbook.pdf

  # HTTP mode (for MCP Inspector, remote access)
  docqa mcp serve handbook.pdf --port 8080

Client configuration:
  {
    "mcpServers": {
      "handbook": {
        "command": "/path/to/docqa",
        "args": ["mcp", "serve", "/path/to/handbook.pdf"]
      }
    }
  }`,
	Args: cobra.ExactArgs(1),
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := commandContext(cmd)
	session, err := rt.Session.Open(ctx, doc)
	if err != nil {
		return fmt.Errorf("open %s: %w", doc.Name, err)
	}
	defer rt.Session.Close(session)

	server, err := mcp.NewServer(&mcp.Ports{
		Sessions: rt.Session,
		Session:  session,
		SearchK:  rt.SearchK,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
