package main

import (
	"github.com/spf13/cobra"

	"designagent/internal/capability"
	"designagent/internal/gateway/app"
)

func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the design capabilities as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return capability.ServeMCP(capability.Default(), app.Version)
		},
	}
}
