package format

import (
	"fmt"
	"io"

	"github.com/dhamidi/pcfg/cky"
	"gopkg.in/yaml.v2"
)

// YAMLEncoder writes a result as a YAML document with the same fields as
// JSONEncoder.
type YAMLEncoder struct {
	w      io.Writer
	result *cky.Result
}

// NewYAMLEncoder returns an encoder writing to w.
func NewYAMLEncoder(w io.Writer) *YAMLEncoder {
	return &YAMLEncoder{w: w}
}

func (e *YAMLEncoder) Encode(result *cky.Result) error {
	e.result = result
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append([]byte("---\n"), text...))
	return err
}

func (e *YAMLEncoder) MarshalText() ([]byte, error) {
	if e.result == nil {
		return nil, fmt.Errorf("yaml: no result to encode")
	}
	return yaml.Marshal(buildResult(e.result))
}
