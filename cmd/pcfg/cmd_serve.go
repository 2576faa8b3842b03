package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dhamidi/pcfg/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:          "serve [grammar]",
		Short:        "Serve recognition and parsing over HTTP",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			parser, err := loadParser(path)
			if err != nil {
				return err
			}

			serverCfg := cfg.Server
			if addr != "" {
				serverCfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			displayAddr := serverCfg.Addr
			if strings.HasPrefix(displayAddr, ":") {
				displayAddr = "localhost" + displayAddr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Starting server at http://%s\n", displayAddr)

			srv := server.NewServer(parser,
				server.WithMaxTokens(serverCfg.MaxTokens),
				server.WithMaxBodyBytes(serverCfg.MaxBodyBytes),
			)
			return srv.ListenAndServe(ctx, serverCfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "address to listen on (default from config)")

	return cmd
}
