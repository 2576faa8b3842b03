package cky

import (
	"fmt"
	"math"

	"github.com/dhamidi/pcfg/grammar"
	"github.com/tliron/commonlog"
)

// Parser binds the engines to one grammar. It keeps no per-call state, so a
// single Parser may be shared by concurrent callers.
type Parser struct {
	grammar *grammar.Grammar
	log     commonlog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for debug output.
func WithLogger(log commonlog.Logger) Option {
	return func(p *Parser) {
		p.log = log
	}
}

// NewParser creates a parser for g.
func NewParser(g *grammar.Grammar, opts ...Option) *Parser {
	p := &Parser{
		grammar: g,
		log:     commonlog.GetLogger("pcfg.cky"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Grammar returns the grammar the parser was created with.
func (p *Parser) Grammar() *grammar.Grammar {
	return p.grammar
}

// IsInLanguage reports whether the grammar derives tokens.
func (p *Parser) IsInLanguage(tokens []string) bool {
	ok := IsInLanguage(p.grammar, tokens)
	p.log.Debugf("recognize %d tokens: %t", len(tokens), ok)
	return ok
}

// Parse builds the backpointer and probability charts for tokens.
func (p *Parser) Parse(tokens []string) (*BackpointerChart, *ProbabilityChart) {
	backpointers, probs := Parse(p.grammar, tokens)
	p.log.Debugf("parse %d tokens: %d spans, %d entries", len(tokens), len(probs.t.cells), probs.t.entries())
	return backpointers, probs
}

// Result is the best derivation of a sentence.
type Result struct {
	Tokens  []string
	Tree    *Node
	LogProb float64
}

// Probability returns the probability of the derivation.
func (r *Result) Probability() float64 {
	return math.Exp2(r.LogProb)
}

// Best returns the most probable derivation of tokens from the start symbol.
// The second result is false when the sentence is not in the language.
func (p *Parser) Best(tokens []string) (*Result, bool) {
	backpointers, probs := p.Parse(tokens)
	return p.BestFromCharts(tokens, backpointers, probs)
}

// BestFromCharts reads the best derivation of tokens out of charts already
// built by Parse for the same tokens.
func (p *Parser) BestFromCharts(tokens []string, backpointers *BackpointerChart, probs *ProbabilityChart) (*Result, bool) {
	logProb, ok := probs.Root(p.grammar.Start())
	if !ok {
		return nil, false
	}

	tree, err := ExtractTree(backpointers, 0, len(tokens), p.grammar.Start())
	if err != nil {
		panic(fmt.Sprintf("inconsistent charts: %v", err))
	}

	return &Result{Tokens: tokens, Tree: tree, LogProb: logProb}, true
}
