package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/c0ls/c0/codebase"
)

func newLSPCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.options()
			if err != nil {
				return err
			}
			server := codebase.NewLSPServer(version, opts...)
			return server.RunStdio()
		},
	}
}
