package cli

import (
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Let an AI assistant search and question the library",
	Long: `Serve the library over the Model Context Protocol.

Without --port the server speaks JSON-RPC on stdin and stdout, which is what
desktop assistants expect when they launch it themselves:

  {"mcpServers": {"marginalia": {"command": "marginalia", "args": ["mcp", "serve"]}}}

With --port it listens for streamable HTTP instead, for the MCP Inspector or
clients on other machines. GET /healthz answers while it runs.`,
	Example: `  marginalia mcp serve
  marginalia mcp serve --port 8080
  marginalia mcp serve --port 8080 --host 0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().String("host", "localhost", "interface to bind with --port")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")

	server, err := mcp.NewServer(&mcp.Ports{
		Index:    indexService,
		Chat:     chatService,
		Document: documentService,
		Analysis: analysisService,
		Stats:    statsService,
	})
	if err != nil {
		return err
	}

	if port <= 0 {
		return server.Run(cmd.Context())
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	// stdout stays clean for scripts; the banner goes to stderr.
	cmd.PrintErrf("MCP server listening on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
