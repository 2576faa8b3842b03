package main

import (
	"fmt"

	"github.com/dhamidi/pcfg/grammar"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	var tolerance float64

	cmd := &cobra.Command{
		Use:           "verify <grammar>",
		Short:         "Check that a grammar is a CNF PCFG",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			if !cmd.Flags().Changed("tolerance") {
				tolerance = cfg.Grammar.Tolerance
			}

			g, err := grammar.LoadGrammar(filename)
			if err != nil {
				printErrors(cmd.ErrOrStderr(), err)
				return err
			}

			if err := g.Verify(grammar.WithTolerance(tolerance)); err != nil {
				printErrors(cmd.ErrOrStderr(), err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d rules, %d nonterminals, %d terminals)\n",
				filename, len(g.Rules()), len(g.Nonterminals()), len(g.Terminals()))
			return nil
		},
	}

	cmd.Flags().Float64Var(&tolerance, "tolerance", grammar.DefaultTolerance, "relative tolerance for probability sums")

	return cmd
}
