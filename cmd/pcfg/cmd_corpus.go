package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/pcfg/corpus"
	"github.com/dhamidi/pcfg/format"
	"github.com/spf13/cobra"
)

func newCorpusCmd() *cobra.Command {
	var outputFormat string
	var workers int

	cmd := &cobra.Command{
		Use:          "corpus <grammar> <file>",
		Short:        "Parse every sentence of a file, one sentence per line",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat == "" {
				outputFormat = cfg.Output.Format
			}
			if workers == 0 {
				workers = cfg.Corpus.Workers
			}

			out := cmd.OutOrStdout()
			encoder, err := format.New(outputFormat, out)
			if err != nil {
				return err
			}

			parser, err := loadParser(args[0])
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open corpus: %w", err)
			}
			defer f.Close()

			sentences, err := corpus.Read(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			outcomes, err := corpus.Parse(cmd.Context(), parser, sentences, workers)
			if err != nil {
				return err
			}

			for _, o := range outcomes {
				if !o.Parsed {
					fmt.Fprintf(out, "# line %d: no parse: %s\n", o.Sentence.Line, o.Sentence.Text)
					continue
				}
				if err := encoder.Encode(o.Result); err != nil {
					return fmt.Errorf("encode line %d: %w", o.Sentence.Line, err)
				}
			}

			summary := corpus.Summarize(outcomes)
			fmt.Fprintf(cmd.ErrOrStderr(), "parsed %d/%d sentences (%.1f%%)\n",
				summary.Parsed, summary.Sentences, 100*summary.Coverage())
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: tree, indented, json, yaml (default from config)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent parses (default from config)")

	return cmd
}
