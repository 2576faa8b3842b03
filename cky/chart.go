// Package cky implements CYK recognition and Viterbi parsing for CNF PCFGs.
//
// Every call owns its charts. A chart covers all n(n+1)/2 spans of the input
// and each span keeps its nonterminals in insertion order, so iterating a
// chart (and therefore breaking ties between equally probable derivations)
// is deterministic.
package cky

import (
	"fmt"

	"github.com/dhamidi/pcfg/grammar"
)

// Span is the half-open token range [Start, End).
type Span struct {
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("(%d,%d)", s.Start, s.End)
}

// Backpointer records how a nonterminal was derived over a span. It is either
// a Leaf or a Split.
type Backpointer interface {
	isBackpointer()
}

// Leaf is the backpointer of a nonterminal rewritten directly to a token.
type Leaf struct {
	Token string
}

// Split is the backpointer of a binary rule A -> B C where B covers
// [i,k) and C covers [k,j).
type Split struct {
	Left  Child
	Right Child
}

// Child names one side of a Split.
type Child struct {
	Symbol grammar.Symbol
	Start  int
	End    int
}

func (Leaf) isBackpointer()  {}
func (Split) isBackpointer() {}

// Mid returns the split point k.
func (s Split) Mid() int {
	return s.Left.End
}

// cell holds the entries of one span in insertion order.
type cell[V any] struct {
	symbols []grammar.Symbol
	values  map[grammar.Symbol]V
}

func (c *cell[V]) get(a grammar.Symbol) (V, bool) {
	v, ok := c.values[a]
	return v, ok
}

// set overwrites an existing entry in place or appends a new one.
func (c *cell[V]) set(a grammar.Symbol, v V) {
	if c.values == nil {
		c.values = make(map[grammar.Symbol]V)
	}
	if _, ok := c.values[a]; !ok {
		c.symbols = append(c.symbols, a)
	}
	c.values[a] = v
}

func (c *cell[V]) remove(a grammar.Symbol) {
	if _, ok := c.values[a]; !ok {
		return
	}
	delete(c.values, a)
	for i, s := range c.symbols {
		if s == a {
			c.symbols = append(c.symbols[:i], c.symbols[i+1:]...)
			break
		}
	}
}

// table is a triangular array of cells, one per span of an n-token input.
type table[V any] struct {
	n     int
	cells []cell[V]
}

func newTable[V any](n int) table[V] {
	return table[V]{n: n, cells: make([]cell[V], n*(n+1)/2)}
}

// at returns the cell of span [i,j) or nil if the span is out of range.
func (t *table[V]) at(i, j int) *cell[V] {
	if i < 0 || i >= j || j > t.n {
		return nil
	}
	l := j - i
	offset := (l-1)*(t.n+1) - (l-1)*l/2
	return &t.cells[offset+i]
}

func (t *table[V]) get(i, j int, a grammar.Symbol) (V, bool) {
	c := t.at(i, j)
	if c == nil {
		var zero V
		return zero, false
	}
	return c.get(a)
}

func (t *table[V]) symbols(i, j int) []grammar.Symbol {
	c := t.at(i, j)
	if c == nil {
		return nil
	}
	return c.symbols
}

// spans lists every span bottom-up: by length, then by start.
func (t *table[V]) spans() []Span {
	spans := make([]Span, 0, len(t.cells))
	for l := 1; l <= t.n; l++ {
		for i := 0; i+l <= t.n; i++ {
			spans = append(spans, Span{Start: i, End: i + l})
		}
	}
	return spans
}

func (t *table[V]) entries() int {
	total := 0
	for i := range t.cells {
		total += len(t.cells[i].symbols)
	}
	return total
}

// ReachabilityChart records which nonterminals derive each span.
type ReachabilityChart struct {
	t table[struct{}]
}

// Len returns the number of tokens the chart covers.
func (c *ReachabilityChart) Len() int { return c.t.n }

// Has reports whether a derives the tokens of [i,j).
func (c *ReachabilityChart) Has(i, j int, a grammar.Symbol) bool {
	_, ok := c.t.get(i, j, a)
	return ok
}

// Symbols returns the nonterminals deriving [i,j) in insertion order.
func (c *ReachabilityChart) Symbols(i, j int) []grammar.Symbol {
	return c.t.symbols(i, j)
}

// BackpointerChart stores, for each span and nonterminal, the backpointer of
// the best derivation found.
type BackpointerChart struct {
	t table[Backpointer]
}

// Len returns the number of tokens the chart covers.
func (c *BackpointerChart) Len() int { return c.t.n }

// Get returns the backpointer of a over [i,j).
func (c *BackpointerChart) Get(i, j int, a grammar.Symbol) (Backpointer, bool) {
	return c.t.get(i, j, a)
}

// Symbols returns the nonterminals with an entry over [i,j) in insertion order.
func (c *BackpointerChart) Symbols(i, j int) []grammar.Symbol {
	return c.t.symbols(i, j)
}

// Spans lists every span of the chart bottom-up.
func (c *BackpointerChart) Spans() []Span {
	return c.t.spans()
}

// Plain converts the chart into nested maps keyed by [2]int spans. A leaf is
// the token string, a split is []any{[]any{B, i, k}, []any{C, k, j}}. Every
// span is present, possibly with an empty inner map.
func (c *BackpointerChart) Plain() map[[2]int]map[string]any {
	out := make(map[[2]int]map[string]any, len(c.t.cells))
	for _, span := range c.Spans() {
		cl := c.t.at(span.Start, span.End)
		inner := make(map[string]any, len(cl.symbols))
		for _, a := range cl.symbols {
			switch bp := cl.values[a].(type) {
			case Leaf:
				inner[string(a)] = bp.Token
			case Split:
				inner[string(a)] = []any{
					[]any{string(bp.Left.Symbol), bp.Left.Start, bp.Left.End},
					[]any{string(bp.Right.Symbol), bp.Right.Start, bp.Right.End},
				}
			}
		}
		out[[2]int{span.Start, span.End}] = inner
	}
	return out
}

// ProbabilityChart stores, for each span and nonterminal, the log2
// probability of the best derivation found.
type ProbabilityChart struct {
	t table[float64]
}

// Len returns the number of tokens the chart covers.
func (c *ProbabilityChart) Len() int { return c.t.n }

// Get returns the best log2 probability of a over [i,j).
func (c *ProbabilityChart) Get(i, j int, a grammar.Symbol) (float64, bool) {
	return c.t.get(i, j, a)
}

// Root returns the best log2 probability of a over the whole input.
func (c *ProbabilityChart) Root(a grammar.Symbol) (float64, bool) {
	return c.t.get(0, c.t.n, a)
}

// Symbols returns the nonterminals with an entry over [i,j) in insertion order.
func (c *ProbabilityChart) Symbols(i, j int) []grammar.Symbol {
	return c.t.symbols(i, j)
}

// Spans lists every span of the chart bottom-up.
func (c *ProbabilityChart) Spans() []Span {
	return c.t.spans()
}

// Plain converts the chart into nested maps keyed by [2]int spans.
func (c *ProbabilityChart) Plain() map[[2]int]map[string]float64 {
	out := make(map[[2]int]map[string]float64, len(c.t.cells))
	for _, span := range c.Spans() {
		cl := c.t.at(span.Start, span.End)
		inner := make(map[string]float64, len(cl.symbols))
		for _, a := range cl.symbols {
			inner[string(a)] = cl.values[a]
		}
		out[[2]int{span.Start, span.End}] = inner
	}
	return out
}
