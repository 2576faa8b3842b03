package cky

import "github.com/dhamidi/pcfg/grammar"

// Recognize fills a reachability chart for tokens. Only rule shapes are
// consulted, never probabilities.
func Recognize(g *grammar.Grammar, tokens []string) *ReachabilityChart {
	n := len(tokens)
	chart := &ReachabilityChart{t: newTable[struct{}](n)}

	for i, tok := range tokens {
		c := chart.t.at(i, i+1)
		for _, r := range g.RulesByRHS(grammar.Symbol(tok)) {
			c.set(r.LHS, struct{}{})
		}
	}

	for length := 2; length <= n; length++ {
		for i := 0; i+length <= n; i++ {
			j := i + length
			c := chart.t.at(i, j)
			for k := i + 1; k < j; k++ {
				left, right := chart.t.at(i, k), chart.t.at(k, j)
				for _, b := range left.symbols {
					for _, cc := range right.symbols {
						for _, r := range g.RulesByRHS(b, cc) {
							c.set(r.LHS, struct{}{})
						}
					}
				}
			}
		}
	}

	return chart
}

// IsInLanguage reports whether the start symbol of g derives tokens. The
// empty sequence is never in the language.
func IsInLanguage(g *grammar.Grammar, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	return Recognize(g, tokens).Has(0, len(tokens), g.Start())
}
