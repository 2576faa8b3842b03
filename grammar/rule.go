// Package grammar holds probabilistic context-free grammars in Chomsky normal
// form and reads them from their line-oriented text representation.
package grammar

import (
	"fmt"
	"strings"
	"unicode"
)

// Symbol is a grammar symbol, either a nonterminal or a terminal token.
type Symbol string

// IsNonterminal reports whether s follows the nonterminal convention: it has
// at least one cased letter and no lowercase letters ("NP", "S", "PP-LOC").
func (s Symbol) IsNonterminal() bool {
	cased := false
	for _, r := range string(s) {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// Rule is a weighted rewrite rule LHS -> RHS.
type Rule struct {
	LHS         Symbol
	RHS         []Symbol
	Probability float64

	// Line is the 1-based source line the rule was read from, 0 if unknown.
	Line int
}

// IsUnary returns true for rules rewriting to a single symbol, like NP -> dogs
func (r *Rule) IsUnary() bool {
	return len(r.RHS) == 1
}

// IsBinary returns true for rules rewriting to two symbols, like S -> NP VP
func (r *Rule) IsBinary() bool {
	return len(r.RHS) == 2
}

// String converts rule to its source format
func (r *Rule) String() string {
	symbols := make([]string, len(r.RHS))
	for i, s := range r.RHS {
		symbols[i] = string(s)
	}
	return fmt.Sprintf("%s -> %s ; %g", r.LHS, strings.Join(symbols, " "), r.Probability)
}

// rhsKey joins a right-hand side into a map key. The separator cannot occur
// inside a symbol because symbols are whitespace-delimited.
func rhsKey(rhs []Symbol) string {
	switch len(rhs) {
	case 1:
		return string(rhs[0])
	case 2:
		return string(rhs[0]) + " " + string(rhs[1])
	}
	parts := make([]string, len(rhs))
	for i, s := range rhs {
		parts[i] = string(s)
	}
	return strings.Join(parts, " ")
}
