package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dhamidi/pcfg/cky"
)

// JSONEncoder writes a result as indented JSON: tokens, log probability,
// probability and the tree as nested nodes with spans.
type JSONEncoder struct {
	w      io.Writer
	result *cky.Result
}

// NewJSONEncoder returns an encoder writing to w.
func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(result *cky.Result) error {
	e.result = result
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	text = append(text, '\n')
	_, err = e.w.Write(text)
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	if e.result == nil {
		return nil, fmt.Errorf("json: no result to encode")
	}
	return json.MarshalIndent(buildResult(e.result), "", "  ")
}

type jsonResult struct {
	Tokens      []string  `json:"tokens" yaml:"tokens"`
	LogProb     float64   `json:"logprob" yaml:"logprob"`
	Probability float64   `json:"probability" yaml:"probability"`
	Tree        *jsonNode `json:"tree" yaml:"tree"`
}

type jsonNode struct {
	Symbol   string      `json:"symbol" yaml:"symbol"`
	Span     [2]int      `json:"span" yaml:"span,flow"`
	Token    string      `json:"token,omitempty" yaml:"token,omitempty"`
	Children []*jsonNode `json:"children,omitempty" yaml:"children,omitempty"`
}

func buildResult(r *cky.Result) jsonResult {
	return jsonResult{
		Tokens:      r.Tokens,
		LogProb:     r.LogProb,
		Probability: r.Probability(),
		Tree:        nodeToJSON(r.Tree),
	}
}

func nodeToJSON(n *cky.Node) *jsonNode {
	if n == nil {
		return nil
	}
	out := &jsonNode{
		Symbol: string(n.Symbol),
		Span:   [2]int{n.Span.Start, n.Span.End},
		Token:  n.Token,
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, nodeToJSON(c))
	}
	return out
}
