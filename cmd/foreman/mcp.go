package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/foreman/internal/cli"
	"github.com/aretw0/foreman/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts foreman as an MCP server exposing the run_task and describe_team tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		asm, err := cli.BuildTeam(ctx, cfg, logger, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer asm.Close()

		srv := mcp.NewServer(asm.Team, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			// Stdout carries JSON-RPC; nothing else may write there.
			log.SetOutput(os.Stderr)
			logger.Info("starting MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("starting MCP server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil {
				return err
			}
			logger.Info("MCP server stopped")
			return nil
		default:
			return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
