package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/pcfg/cky"
)

// TreeEncoder writes the bracketed tree followed by a tab and the log2
// probability.
type TreeEncoder struct {
	w        io.Writer
	result   *cky.Result
	indented bool
}

// TreeOption configures a TreeEncoder.
type TreeOption func(*TreeEncoder)

// Indent prints one node per line, children indented by two spaces.
func Indent() TreeOption {
	return func(e *TreeEncoder) {
		e.indented = true
	}
}

// NewTreeEncoder returns an encoder writing to w.
func NewTreeEncoder(w io.Writer, opts ...TreeOption) *TreeEncoder {
	e := &TreeEncoder{w: w}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *TreeEncoder) Encode(result *cky.Result) error {
	e.result = result
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TreeEncoder) MarshalText() ([]byte, error) {
	if e.result == nil || e.result.Tree == nil {
		return nil, fmt.Errorf("tree: no result to encode")
	}

	var sb strings.Builder
	if e.indented {
		sb.WriteString(e.result.Tree.Indented())
	} else {
		sb.WriteString(e.result.Tree.String())
	}
	fmt.Fprintf(&sb, "\t%g\n", e.result.LogProb)
	return []byte(sb.String()), nil
}
