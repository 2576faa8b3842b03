package main

import (
	"os"

	"github.com/dhamidi/pcfg/config"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

// cfg is loaded before any subcommand runs.
var cfg *config.Config

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var verbosity int
	var logFile string

	rootCmd := &cobra.Command{
		Use:     "pcfg",
		Short:   "Probabilistic CKY parsing for CNF grammars",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("verbose") {
				loaded.Log.Verbosity = verbosity
			}
			if logFile != "" {
				loaded.Log.File = logFile
			}
			cfg = loaded

			var path *string
			if cfg.Log.File != "" {
				path = &cfg.Log.File
			}
			commonlog.Configure(cfg.Log.Verbosity, path)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (default $PCFG_CONFIG or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to file instead of stderr")

	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newRecognizeCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newCorpusCmd())
	rootCmd.AddCommand(newTokenizeCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLSPCmd())

	return rootCmd
}
