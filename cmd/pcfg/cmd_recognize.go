package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecognizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "recognize <grammar> <sentence>...",
		Short:        "Report whether the grammar derives a sentence",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, err := loadParser(args[0])
			if err != nil {
				return err
			}
			tokens, err := sentenceTokens(args[1:])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), parser.IsInLanguage(tokens))
			return nil
		},
	}
}
