package grammar

// Grammar is an immutable CNF PCFG: a rule set indexed by right-hand side and
// by left-hand side plus a start symbol. It is safe for concurrent readers.
type Grammar struct {
	start Symbol
	rules []*Rule

	byRHS map[string][]*Rule
	byLHS map[Symbol][]*Rule

	nonterminals []Symbol
	terminals    []Symbol
}

// New creates a grammar from rules in source order. The rules are not
// checked; use Verify to audit them.
func New(start Symbol, rules []*Rule) *Grammar {
	g := &Grammar{
		start: start,
		rules: make([]*Rule, 0, len(rules)),
		byRHS: map[string][]*Rule{},
		byLHS: map[Symbol][]*Rule{},
	}

	seenNT := map[Symbol]bool{}
	seenT := map[Symbol]bool{}
	addSymbol := func(s Symbol) {
		if s.IsNonterminal() {
			if !seenNT[s] {
				seenNT[s] = true
				g.nonterminals = append(g.nonterminals, s)
			}
		} else if !seenT[s] {
			seenT[s] = true
			g.terminals = append(g.terminals, s)
		}
	}

	for _, r := range rules {
		rule := &Rule{
			LHS:         r.LHS,
			RHS:         append([]Symbol(nil), r.RHS...),
			Probability: r.Probability,
			Line:        r.Line,
		}
		g.rules = append(g.rules, rule)

		key := rhsKey(rule.RHS)
		g.byRHS[key] = append(g.byRHS[key], rule)
		g.byLHS[rule.LHS] = append(g.byLHS[rule.LHS], rule)

		addSymbol(rule.LHS)
		for _, s := range rule.RHS {
			addSymbol(s)
		}
	}

	return g
}

// Start returns the start symbol.
func (g *Grammar) Start() Symbol {
	return g.start
}

// Rules returns all rules in source order. Callers must not modify them.
func (g *Grammar) Rules() []*Rule {
	return g.rules
}

// RulesByRHS returns the rules whose right-hand side is exactly rhs. Unknown
// right-hand sides yield nil.
func (g *Grammar) RulesByRHS(rhs ...Symbol) []*Rule {
	return g.byRHS[rhsKey(rhs)]
}

// RulesByLHS returns the rules rewriting lhs. Unknown symbols yield nil.
func (g *Grammar) RulesByLHS(lhs Symbol) []*Rule {
	return g.byLHS[lhs]
}

// LHSymbols returns every left-hand side in first-seen order.
func (g *Grammar) LHSymbols() []Symbol {
	var out []Symbol
	seen := map[Symbol]bool{}
	for _, r := range g.rules {
		if !seen[r.LHS] {
			seen[r.LHS] = true
			out = append(out, r.LHS)
		}
	}
	return out
}

// Nonterminals returns every nonterminal mentioned by a rule, first-seen order.
func (g *Grammar) Nonterminals() []Symbol {
	return g.nonterminals
}

// Terminals returns every terminal mentioned by a rule, first-seen order.
func (g *Grammar) Terminals() []Symbol {
	return g.terminals
}
