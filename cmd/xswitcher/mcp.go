package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/1broseidon/xswitcher/internal/mcp"
	"github.com/1broseidon/xswitcher/internal/switcher"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol integration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: "Start the MCP server on stdio. Designed to be invoked by MCP clients, e.g.:\n" +
			"  claude mcp add xswitcher -- xswitcher mcp serve",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAPI(cmd, func(ctx context.Context, api switcher.API) error {
				return mcp.NewServer(api, a.logger).Run(ctx)
			})
		},
	})
	return cmd
}
