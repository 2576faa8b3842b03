package main

import (
	"github.com/dhamidi/pcfg/lsp"
	"github.com/spf13/cobra"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server for grammar files",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := lsp.NewLSPServer(version, cfg.Grammar.Tolerance)
			return server.RunStdio()
		},
	}
}
