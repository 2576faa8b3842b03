package main

import (
	"fmt"
	"strings"

	"github.com/dhamidi/pcfg/ebnflex"
	"github.com/spf13/cobra"
	"golang.org/x/exp/ebnf"
)

func newTokenizeCmd() *cobra.Command {
	var grammarFile string
	var showKinds bool

	cmd := &cobra.Command{
		Use:          "tokenize <text>...",
		Short:        "Split text into tokens with an EBNF lexical grammar",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var g ebnf.Grammar
			if grammarFile != "" {
				var err error
				g, err = ebnflex.LoadGrammar(grammarFile)
				if err != nil {
					return err
				}
			} else {
				g = ebnflex.DefaultGrammar()
			}

			lexer := ebnflex.NewLexer(g, []byte(strings.Join(args, " ")), "")
			tokens, err := lexer.Tokenize()
			if err != nil {
				return fmt.Errorf("tokenize: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, tok := range tokens {
				if tok.Kind == "EOF" {
					break
				}
				if showKinds {
					fmt.Fprintln(out, tok)
					continue
				}
				if tok.Kind == "WhiteSpace" {
					continue
				}
				if tok.Kind == "ERROR" {
					return fmt.Errorf("tokenize: unexpected %q at %s", tok.Literal, tok.Position)
				}
				fmt.Fprintln(out, tok.Literal)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&grammarFile, "grammar", "", "EBNF lexical grammar (default: built-in)")
	cmd.Flags().BoolVar(&showKinds, "kinds", false, "print every token with its position and kind")

	return cmd
}
