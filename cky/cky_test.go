package cky

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/dhamidi/pcfg/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dogsGrammar = `
S ; 1.0
S -> NP VP ; 1.0
NP -> dogs ; 1.0
VP -> bark ; 1.0
`

const telescopeGrammar = `
S ; 1.0
S -> NP VP ; 0.8
S -> S PP ; 0.2
VP -> V NP ; 0.6
VP -> VP PP ; 0.3
VP -> saw ; 0.1
NP -> NP PP ; 0.2
NP -> DT N ; 0.5
NP -> i ; 0.2
NP -> stars ; 0.1
PP -> P NP ; 1.0
V -> saw ; 1.0
DT -> the ; 0.6
DT -> a ; 0.4
N -> man ; 0.5
N -> telescope ; 0.5
P -> with ; 1.0
`

func mustGrammar(t *testing.T, src string) *grammar.Grammar {
	t.Helper()
	g, err := grammar.Read("test.pcfg", strings.NewReader(src))
	require.NoError(t, err)
	require.NoError(t, g.Verify())
	return g
}

func TestDogsBark(t *testing.T) {
	g := mustGrammar(t, dogsGrammar)
	tokens := []string{"dogs", "bark"}

	assert.True(t, IsInLanguage(g, tokens))

	backpointers, probs := Parse(g, tokens)
	score, ok := probs.Get(0, 2, "S")
	require.True(t, ok)
	assert.Equal(t, 0.0, score)

	bp, ok := backpointers.Get(0, 2, "S")
	require.True(t, ok)
	assert.Equal(t, Split{
		Left:  Child{Symbol: "NP", Start: 0, End: 1},
		Right: Child{Symbol: "VP", Start: 1, End: 2},
	}, bp)

	leaf, ok := backpointers.Get(0, 1, "NP")
	require.True(t, ok)
	assert.Equal(t, Leaf{Token: "dogs"}, leaf)

	tree, err := ExtractTree(backpointers, 0, 2, "S")
	require.NoError(t, err)
	assert.Equal(t, "(S (NP dogs) (VP bark))", tree.String())
	assert.Equal(t, tokens, tree.Leaves())
}

func TestBarkDogs(t *testing.T) {
	g := mustGrammar(t, dogsGrammar)
	tokens := []string{"bark", "dogs"}

	assert.False(t, IsInLanguage(g, tokens))

	_, probs := Parse(g, tokens)
	_, ok := probs.Get(0, 2, "S")
	assert.False(t, ok)
	assert.Empty(t, probs.Symbols(0, 2))
}

func TestEmptyInput(t *testing.T) {
	g := mustGrammar(t, dogsGrammar)

	assert.False(t, IsInLanguage(g, nil))

	backpointers, probs := Parse(g, []string{})
	assert.Equal(t, 0, probs.Len())
	assert.Empty(t, probs.Spans())
	assert.Empty(t, backpointers.Plain())
	_, ok := probs.Root("S")
	assert.False(t, ok)

	_, ok = NewParser(g).Best(nil)
	assert.False(t, ok)
}

func TestUnknownToken(t *testing.T) {
	g := mustGrammar(t, dogsGrammar)
	assert.False(t, IsInLanguage(g, []string{"cats", "bark"}))

	_, probs := Parse(g, []string{"cats"})
	assert.Empty(t, probs.Symbols(0, 1))
}

func TestChartIndexing(t *testing.T) {
	tb := newTable[int](4)
	seen := map[*cell[int]]Span{}
	for _, span := range tb.spans() {
		c := tb.at(span.Start, span.End)
		require.NotNil(t, c, "span %s", span)
		prev, dup := seen[c]
		require.False(t, dup, "span %s shares a cell with %s", span, prev)
		seen[c] = span
	}
	assert.Len(t, seen, 10)
	assert.Nil(t, tb.at(2, 2))
	assert.Nil(t, tb.at(3, 5))
	assert.Nil(t, tb.at(-1, 1))
}

func TestTelescope(t *testing.T) {
	g := mustGrammar(t, telescopeGrammar)
	tokens := strings.Fields("i saw the man with a telescope")

	require.True(t, IsInLanguage(g, tokens))

	result, ok := NewParser(g).Best(tokens)
	require.True(t, ok)
	assert.Equal(t, tokens, result.Tree.Leaves())
	// VP -> VP PP (0.3*0.6) beats NP -> NP PP (0.6*0.2) and S -> S PP.
	assert.Equal(t, "(S (NP i) (VP (VP (V saw) (NP (DT the) (N man))) (PP (P with) (NP (DT a) (N telescope)))))",
		result.Tree.String())

	want := math.Log2(0.8 * 0.2 * 0.3 * 0.6 * (0.5 * 0.6 * 0.5) * (0.5 * 0.4 * 0.5))
	assert.InDelta(t, want, result.LogProb, 1e-9)
	assert.InDelta(t, math.Exp2(want), result.Probability(), 1e-12)
}

func TestTieKeepsFirstSplit(t *testing.T) {
	g := mustGrammar(t, "S ; 1\nS -> S S ; 0.5\nS -> a ; 0.5\n")
	tokens := []string{"a", "a", "a"}

	backpointers, probs := Parse(g, tokens)
	score, ok := probs.Root("S")
	require.True(t, ok)
	assert.Equal(t, -5.0, score)

	bp, ok := backpointers.Get(0, 3, "S")
	require.True(t, ok)
	split, ok := bp.(Split)
	require.True(t, ok)
	assert.Equal(t, 1, split.Mid())

	tree, err := ExtractTree(backpointers, 0, 3, "S")
	require.NoError(t, err)
	assert.Equal(t, "(S (S a) (S (S a) (S a)))", tree.String())
}

func TestTieKeepsFirstRule(t *testing.T) {
	g := mustGrammar(t, `
S ; 1
S -> X Y ; 0.5
S -> Z W ; 0.5
X -> a ; 1
Y -> b ; 1
Z -> a ; 1
W -> b ; 1
`)
	backpointers, _ := Parse(g, []string{"a", "b"})
	bp, ok := backpointers.Get(0, 2, "S")
	require.True(t, ok)
	assert.Equal(t, grammar.Symbol("X"), bp.(Split).Left.Symbol)
}

func TestBaseCaseLastRuleWins(t *testing.T) {
	g := grammar.New("A", []*grammar.Rule{
		{LHS: "A", RHS: []grammar.Symbol{"x"}, Probability: 0.3},
		{LHS: "A", RHS: []grammar.Symbol{"x"}, Probability: 0.7},
	})

	_, probs := Parse(g, []string{"x"})
	score, ok := probs.Get(0, 1, "A")
	require.True(t, ok)
	assert.Equal(t, math.Log2(0.7), score)
	assert.Equal(t, []grammar.Symbol{"A"}, probs.Symbols(0, 1))
}

func TestExtractTreeMissingCell(t *testing.T) {
	g := mustGrammar(t, dogsGrammar)
	backpointers, _ := Parse(g, []string{"bark", "dogs"})

	_, err := ExtractTree(backpointers, 0, 2, "S")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCell))

	_, err = ExtractTree(backpointers, 0, 5, "S")
	assert.True(t, errors.Is(err, ErrMissingCell))
}

func TestIndented(t *testing.T) {
	g := mustGrammar(t, dogsGrammar)
	backpointers, _ := Parse(g, []string{"dogs", "bark"})
	tree, err := ExtractTree(backpointers, 0, 2, "S")
	require.NoError(t, err)
	assert.Equal(t, "(S\n  (NP dogs)\n  (VP bark))", tree.Indented())
}

// sentences enumerates every token sequence of length 1..maxLen over vocab.
func sentences(vocab []string, maxLen int) [][]string {
	var out [][]string
	var grow func(prefix []string)
	grow = func(prefix []string) {
		if len(prefix) > 0 {
			out = append(out, append([]string(nil), prefix...))
		}
		if len(prefix) == maxLen {
			return
		}
		for _, w := range vocab {
			grow(append(prefix, w))
		}
	}
	grow(nil)
	return out
}

var vocab = []string{"i", "saw", "the", "man", "with", "stars"}

func TestEnginesAgree(t *testing.T) {
	g := mustGrammar(t, telescopeGrammar)
	for _, tokens := range sentences(vocab, 4) {
		_, probs := Parse(g, tokens)
		score, ok := probs.Root(g.Start())
		inLanguage := ok && !math.IsInf(score, 0)
		assert.Equal(t, inLanguage, IsInLanguage(g, tokens), "tokens %v", tokens)
	}
}

func TestReachabilityMatchesProbabilityChart(t *testing.T) {
	g := mustGrammar(t, telescopeGrammar)
	tokens := strings.Fields("i saw stars with the man")

	reach := Recognize(g, tokens)
	_, probs := Parse(g, tokens)
	for _, span := range probs.Spans() {
		assert.ElementsMatch(t, reach.Symbols(span.Start, span.End), probs.Symbols(span.Start, span.End), "span %s", span)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	g := mustGrammar(t, telescopeGrammar)
	tokens := strings.Fields("i saw the man with a telescope with stars")

	bp1, p1 := Parse(g, tokens)
	bp2, p2 := Parse(g, tokens)
	assert.Equal(t, bp1.Plain(), bp2.Plain())
	assert.Equal(t, p1.Plain(), p2.Plain())

	for _, span := range p1.Spans() {
		assert.Equal(t, p1.Symbols(span.Start, span.End), p2.Symbols(span.Start, span.End))
	}
}

type derivation struct {
	nt   grammar.Symbol
	i, j int
}

// bestScore computes the best log2 probability of nt over tokens[i:j] top-down
// over every rule and split point, independently of the chart code.
func bestScore(g *grammar.Grammar, tokens []string, nt grammar.Symbol, i, j int, memo map[derivation]float64) float64 {
	key := derivation{nt, i, j}
	if score, ok := memo[key]; ok {
		return score
	}
	best := math.Inf(-1)
	defer func() { memo[key] = best }()

	if j-i == 1 {
		for _, r := range g.RulesByLHS(nt) {
			if r.IsUnary() && string(r.RHS[0]) == tokens[i] {
				best = math.Max(best, math.Log2(r.Probability))
			}
		}
		return best
	}
	for _, r := range g.RulesByLHS(nt) {
		if !r.IsBinary() {
			continue
		}
		for k := i + 1; k < j; k++ {
			score := math.Log2(r.Probability) +
				bestScore(g, tokens, r.RHS[0], i, k, memo) +
				bestScore(g, tokens, r.RHS[1], k, j, memo)
			best = math.Max(best, score)
		}
	}
	return best
}

func TestScoresAreOptimal(t *testing.T) {
	g := mustGrammar(t, telescopeGrammar)
	for _, sentence := range []string{
		"i saw the man with a telescope",
		"i saw stars with the man with a telescope",
		"the man saw i",
	} {
		tokens := strings.Fields(sentence)
		_, probs := Parse(g, tokens)
		memo := map[derivation]float64{}
		for _, span := range probs.Spans() {
			for _, nt := range g.Nonterminals() {
				want := bestScore(g, tokens, nt, span.Start, span.End, memo)
				got, ok := probs.Get(span.Start, span.End, nt)
				if math.IsInf(want, -1) {
					assert.False(t, ok, "%s over %s in %q", nt, span, sentence)
					continue
				}
				require.True(t, ok, "%s over %s in %q", nt, span, sentence)
				assert.InDelta(t, want, got, 1e-9, "%s over %s in %q", nt, span, sentence)
			}
		}
	}
}

func TestTreeYieldsInput(t *testing.T) {
	g := mustGrammar(t, telescopeGrammar)
	parser := NewParser(g)
	for _, tokens := range sentences(vocab, 4) {
		result, ok := parser.Best(tokens)
		if !ok {
			continue
		}
		assert.Equal(t, tokens, result.Tree.Leaves())
		for _, node := range internalNodes(result.Tree) {
			assert.Len(t, node.Children, 2)
		}
	}
}

func internalNodes(n *Node) []*Node {
	if n.IsPreterminal() {
		return nil
	}
	out := []*Node{n}
	for _, child := range n.Children {
		out = append(out, internalNodes(child)...)
	}
	return out
}

func TestBestFromChartsMatchesBest(t *testing.T) {
	p := NewParser(mustGrammar(t, telescopeGrammar))

	for _, sentence := range []string{"i saw the man with a telescope", "saw i", "i saw stars"} {
		tokens := strings.Fields(sentence)
		want, wantOK := p.Best(tokens)

		backpointers, probs := p.Parse(tokens)
		got, ok := p.BestFromCharts(tokens, backpointers, probs)

		require.Equal(t, wantOK, ok, sentence)
		if !ok {
			assert.Nil(t, got)
			continue
		}
		assert.Equal(t, want.Tree.String(), got.Tree.String())
		assert.Equal(t, want.LogProb, got.LogProb)
	}
}
