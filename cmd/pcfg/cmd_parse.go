package main

import (
	"errors"
	"fmt"

	"github.com/dhamidi/pcfg/cky"
	"github.com/dhamidi/pcfg/format"
	"github.com/spf13/cobra"
)

var errNoParse = errors.New("sentence is not in the language")

func newParseCmd() *cobra.Command {
	var outputFormat string
	var showCharts bool
	var check bool

	cmd := &cobra.Command{
		Use:          "parse <grammar> <sentence>...",
		Short:        "Print the most probable parse tree of a sentence",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat == "" {
				outputFormat = cfg.Output.Format
			}
			encoder, err := format.New(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			parser, err := loadParser(args[0])
			if err != nil {
				return err
			}
			tokens, err := sentenceTokens(args[1:])
			if err != nil {
				return err
			}

			if showCharts || check {
				backpointers, probs := parser.Parse(tokens)
				if check {
					if err := cky.ValidateBackpointers(backpointers.Plain()); err != nil {
						return fmt.Errorf("check charts: %w", err)
					}
					if err := cky.ValidateProbabilities(probs.Plain()); err != nil {
						return fmt.Errorf("check charts: %w", err)
					}
				}
				if showCharts {
					if err := format.EncodeCharts(cmd.OutOrStdout(), backpointers, probs); err != nil {
						return fmt.Errorf("encode charts: %w", err)
					}
				}
			}

			result, ok := parser.Best(tokens)
			if !ok {
				return errNoParse
			}
			if err := encoder.Encode(result); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: tree, indented, json, yaml (default from config)")
	cmd.Flags().BoolVar(&showCharts, "charts", false, "also print both charts as JSON")
	cmd.Flags().BoolVar(&check, "check", false, "validate the chart structure before printing")

	return cmd
}
