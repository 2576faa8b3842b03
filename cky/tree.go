package cky

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dhamidi/pcfg/grammar"
)

// ErrMissingCell is returned when a tree is requested for a span and
// nonterminal that have no chart entry. It signals misuse of the chart, not
// an unparsable sentence.
var ErrMissingCell = errors.New("no chart entry")

// Node is a node of a binary parse tree. Pre-terminal nodes carry the
// matched Token and no children; every other node has exactly two children.
type Node struct {
	Symbol   grammar.Symbol
	Token    string
	Span     Span
	Children []*Node
}

// IsPreterminal returns true if the node rewrites directly to a token.
func (n *Node) IsPreterminal() bool {
	return len(n.Children) == 0
}

// Leaves returns the tokens under n from left to right.
func (n *Node) Leaves() []string {
	var leaves []string
	var walk func(*Node)
	walk = func(n *Node) {
		if n.IsPreterminal() {
			leaves = append(leaves, n.Token)
			return
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(n)
	return leaves
}

// String renders the tree on one line, like (S (NP dogs) (VP bark)).
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(string(n.Symbol))
	if n.IsPreterminal() {
		b.WriteByte(' ')
		b.WriteString(n.Token)
	}
	for _, child := range n.Children {
		b.WriteByte(' ')
		child.write(b)
	}
	b.WriteByte(')')
}

// Indented renders the tree with one node per line, children indented by two
// spaces.
func (n *Node) Indented() string {
	return n.repr(0)
}

func (n *Node) repr(level int) string {
	prefix := strings.Repeat(" ", level*2)
	if level != 0 {
		prefix = "\n" + prefix
	}

	if n.IsPreterminal() {
		return fmt.Sprintf("%s(%s %s)", prefix, n.Symbol, n.Token)
	}

	childrenReprs := make([]string, 0, len(n.Children))
	for _, child := range n.Children {
		childrenReprs = append(childrenReprs, child.repr(level+1))
	}
	return fmt.Sprintf("%s(%s%s)", prefix, n.Symbol, strings.Join(childrenReprs, ""))
}

// ExtractTree rebuilds the best tree rooted in nt over [i,j) by following
// backpointers top-down. The chart is not modified.
func ExtractTree(chart *BackpointerChart, i, j int, nt grammar.Symbol) (*Node, error) {
	bp, ok := chart.Get(i, j, nt)
	if !ok {
		return nil, fmt.Errorf("extract tree: %w for %s over %s", ErrMissingCell, nt, Span{i, j})
	}

	node := &Node{Symbol: nt, Span: Span{Start: i, End: j}}
	switch bp := bp.(type) {
	case Leaf:
		node.Token = bp.Token
	case Split:
		left, err := ExtractTree(chart, i, bp.Mid(), bp.Left.Symbol)
		if err != nil {
			return nil, err
		}
		right, err := ExtractTree(chart, bp.Mid(), j, bp.Right.Symbol)
		if err != nil {
			return nil, err
		}
		node.Children = []*Node{left, right}
	}

	return node, nil
}
