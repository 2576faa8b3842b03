// Package corpus parses batches of sentences concurrently.
package corpus

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/pcfg/cky"
	"github.com/dhamidi/pcfg/ebnflex"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

var log = commonlog.GetLogger("pcfg.corpus")

// Parser finds the best derivation of a sentence. *cky.Parser implements it.
type Parser interface {
	Best(tokens []string) (*cky.Result, bool)
}

// Sentence is one tokenized input line.
type Sentence struct {
	Line   int
	Text   string
	Tokens []string
}

// Outcome is the parse of one sentence. Parsed is false when the sentence
// is not in the language.
type Outcome struct {
	Sentence Sentence
	Parsed   bool
	Result   *cky.Result
}

// Parse parses every sentence with at most workers concurrent parses.
// Outcomes are in input order. Cancelling ctx stops scheduling new
// sentences and returns the context error.
func Parse(ctx context.Context, p Parser, sentences []Sentence, workers int) ([]Outcome, error) {
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]Outcome, len(sentences))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, s := range sentences {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, ok := p.Best(s.Tokens)
			outcomes[i] = Outcome{Sentence: s, Parsed: ok, Result: result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}

	log.Debugf("parsed %d sentences with %d workers", len(sentences), workers)
	return outcomes, nil
}

// Read reads one sentence per line, tokenized with the default lexical
// grammar. Blank lines and lines starting with # are skipped.
func Read(r io.Reader) ([]Sentence, error) {
	var sentences []Sentence

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		tokens, err := ebnflex.Words(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		sentences = append(sentences, Sentence{Line: lineNum, Text: text, Tokens: tokens})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	return sentences, nil
}

// Summary counts the outcomes of a corpus run.
type Summary struct {
	Sentences int
	Parsed    int
}

// Coverage returns the fraction of sentences that parsed.
func (s Summary) Coverage() float64 {
	if s.Sentences == 0 {
		return 0
	}
	return float64(s.Parsed) / float64(s.Sentences)
}

// Summarize counts how many outcomes parsed.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Sentences: len(outcomes)}
	for _, o := range outcomes {
		if o.Parsed {
			s.Parsed++
		}
	}
	return s
}
