package cky

import (
	"math"

	"github.com/dhamidi/pcfg/grammar"
)

// unresolved is the placeholder backpointer of a nonterminal that is
// reachable over a span but has not been scored yet.
var unresolved = Split{}

// Parse runs the Viterbi CYK algorithm and returns the backpointer and log2
// probability charts for every span of tokens.
//
// Base case: for every rule A -> tokens[i] the span [i,i+1) gets log2(p) and a
// Leaf. Rules sharing A and the token overwrite each other in grammar order.
//
// Inductive case: every nonterminal reachable over [i,j) starts at -Inf; a
// candidate log2(p) + score(B,i,k) + score(C,k,j) replaces the current best
// only when strictly greater, so among equal scores the first split point,
// left child, right child and rule (in that iteration order) is kept.
func Parse(g *grammar.Grammar, tokens []string) (*BackpointerChart, *ProbabilityChart) {
	n := len(tokens)
	backpointers := &BackpointerChart{t: newTable[Backpointer](n)}
	probs := &ProbabilityChart{t: newTable[float64](n)}

	for i, tok := range tokens {
		bc, pc := backpointers.t.at(i, i+1), probs.t.at(i, i+1)
		for _, r := range g.RulesByRHS(grammar.Symbol(tok)) {
			pc.set(r.LHS, math.Log2(r.Probability))
			bc.set(r.LHS, Leaf{Token: tok})
		}
	}

	for length := 2; length <= n; length++ {
		for i := 0; i+length <= n; i++ {
			j := i + length
			bc, pc := backpointers.t.at(i, j), probs.t.at(i, j)

			for k := i + 1; k < j; k++ {
				left, right := probs.t.at(i, k), probs.t.at(k, j)
				for _, b := range left.symbols {
					for _, c := range right.symbols {
						for _, r := range g.RulesByRHS(b, c) {
							pc.set(r.LHS, math.Inf(-1))
							bc.set(r.LHS, unresolved)
						}
					}
				}
			}

			for k := i + 1; k < j; k++ {
				left, right := probs.t.at(i, k), probs.t.at(k, j)
				for _, b := range left.symbols {
					lp := left.values[b]
					for _, c := range right.symbols {
						rp := right.values[c]
						for _, r := range g.RulesByRHS(b, c) {
							score := math.Log2(r.Probability) + lp + rp
							if best := pc.values[r.LHS]; score > best {
								pc.set(r.LHS, score)
								bc.set(r.LHS, Split{
									Left:  Child{Symbol: b, Start: i, End: k},
									Right: Child{Symbol: c, Start: k, End: j},
								})
							}
						}
					}
				}
			}

			// Only zero-probability rules can leave an entry unscored.
			for _, a := range append([]grammar.Symbol(nil), pc.symbols...) {
				if math.IsInf(pc.values[a], -1) {
					pc.remove(a)
					bc.remove(a)
				}
			}
		}
	}

	return backpointers, probs
}
