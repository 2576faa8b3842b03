// Package format renders parse results for output.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/pcfg/cky"
)

// Encoder writes a parse result in one output format.
type Encoder interface {
	encoding.TextMarshaler
	Encode(result *cky.Result) error
}

// Names lists the formats accepted by New.
var Names = []string{"tree", "indented", "json", "yaml"}

// New returns the encoder registered under name.
func New(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "tree":
		return NewTreeEncoder(w), nil
	case "indented":
		return NewTreeEncoder(w, Indent()), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "yaml":
		return NewYAMLEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format %q (want one of %v)", name, Names)
}
