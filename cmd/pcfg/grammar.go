package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/pcfg/cky"
	"github.com/dhamidi/pcfg/ebnflex"
	"github.com/dhamidi/pcfg/grammar"
	"github.com/hashicorp/go-multierror"
)

// loadParser reads and verifies the grammar at path, falling back to the
// configured grammar when path is empty.
func loadParser(path string) (*cky.Parser, error) {
	if path == "" {
		path = cfg.Grammar.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no grammar given (pass a file or set grammar.path)")
	}

	g, err := grammar.LoadGrammar(path)
	if err != nil {
		return nil, err
	}
	if err := g.Verify(grammar.WithTolerance(cfg.Grammar.Tolerance)); err != nil {
		return nil, fmt.Errorf("invalid grammar %s: %w", path, err)
	}
	return cky.NewParser(g), nil
}

func sentenceTokens(args []string) ([]string, error) {
	tokens, err := ebnflex.Words(strings.Join(args, " "))
	if err != nil {
		return nil, fmt.Errorf("tokenize sentence: %w", err)
	}
	return tokens, nil
}

// printErrors writes one line per aggregated error.
func printErrors(w io.Writer, err error) {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			fmt.Fprintln(w, e)
		}
		return
	}
	fmt.Fprintln(w, err)
}
